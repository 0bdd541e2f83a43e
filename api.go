/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"reflect"
)

type BeanLifecycle int32

const (
	BeanUnknown BeanLifecycle = iota
	BeanCreating
	BeanRaw
	BeanBeforeInitialized
	BeanInitialized
	BeanDestroyed
)

func (t BeanLifecycle) String() string {
	switch t {
	case BeanCreating:
		return "BeanCreating"
	case BeanRaw:
		return "BeanRaw"
	case BeanBeforeInitialized:
		return "BeanBeforeInitialized"
	case BeanInitialized:
		return "BeanInitialized"
	case BeanDestroyed:
		return "BeanDestroyed"
	default:
		return "BeanUnknown"
	}
}

var BeanFactoryClass = reflect.TypeOf((*BeanFactory)(nil)).Elem()

type BeanFactory interface {

	/**
	Registers bean definition under the unique name.
	*/
	RegisterDefinition(name string, def *BeanDefinition) error

	/**
	Returns registered bean definition by name.
	*/
	Definition(name string) (*BeanDefinition, error)

	/**
	Materializes every registered singleton definition honoring 'dependsOn' ordering.
	All post processors should be added before this call.
	*/
	InitializeAll() error

	/**
	Gets bean by name, creates it on first request if the definition exist.
	*/
	Get(name string) (interface{}, error)

	/**
	Gets bean by name and checks that it is assignable to the required type.
	*/
	GetAs(name string, requiredType reflect.Type) (interface{}, error)

	/**
	Gets the single bean assignable to the required type.

	Example:
		obj, err := factory.GetByType(reflect.TypeOf((*app.UserService)(nil)).Elem())
	*/
	GetByType(requiredType reflect.Type) (interface{}, error)

	/**
	Creates bean straight from the type bypassing definitions and registers it under the class name.
	*/
	CreateBean(typ reflect.Type) (interface{}, error)

	/**
	Registers pre-built instance, stores it as singleton if the definition says so.
	*/
	RegisterInstance(name string, def *BeanDefinition, obj interface{}) error

	/**
	Appends post processor to the pipeline, order of registration is the order of application.
	*/
	AddPostProcessor(processor BeanPostProcessor)

	/**
	Resolves single bean or collection of beans described by the descriptor.
	*/
	ResolveDependency(desc *DependencyDescriptor) (interface{}, error)

	/**
	Resolves dependency on behalf of the requesting bean, the requester is excluded from collections.
	*/
	ResolveDependencyFor(requester string, desc *DependencyDescriptor) (interface{}, error)

	/**
	Returns true if bean instance or definition exist with the name.
	*/
	ContainsBean(name string) bool

	/**
	Runs destruction hooks on the bean and removes it from the factory.
	*/
	DestroyBean(name string) error

	/**
	Destroys all singletons in reverse creation order.
	*/
	Close() error
}

/**
Post processor is the extension point applied around each constructed bean.
Each hook receives the current instance and must return non-nil instance (the same or replacement).
*/
var BeanPostProcessorClass = reflect.TypeOf((*BeanPostProcessor)(nil)).Elem()

type BeanPostProcessor interface {

	/**
	Called right after instantiation before the bean is published.
	*/
	PostProcessBeforeInitialization(bean interface{}, name string) (interface{}, error)

	/**
	Called after all before-initialization hooks.
	*/
	PostProcessAfterInitialization(bean interface{}, name string) (interface{}, error)
}

var DestructionBeanPostProcessorClass = reflect.TypeOf((*DestructionBeanPostProcessor)(nil)).Elem()

type DestructionBeanPostProcessor interface {
	BeanPostProcessor

	/**
	Called right before singleton is torn down.
	*/
	PostProcessBeforeDestruction(bean interface{}, name string) error
}

/**
Post processors implementing this interface receive the factory on registration.
*/
var BeanFactoryAwareClass = reflect.TypeOf((*BeanFactoryAware)(nil)).Elem()

type BeanFactoryAware interface {
	SetBeanFactory(factory BeanFactory)
}

/**
Initializing bean is using to run required method on post-construct stage by LifecyclePostProcessor
*/
var InitializingBeanClass = reflect.TypeOf((*InitializingBean)(nil)).Elem()

type InitializingBean interface {
	PostConstruct() error
}

/**
This interface uses to select beans that could free resources on factory close
*/
var DisposableBeanClass = reflect.TypeOf((*DisposableBean)(nil)).Elem()

type DisposableBean interface {
	Destroy() error
}

/**
This interface used to provide pre-scanned constructors and classes in Factory.Scan method
*/
var ScannerClass = reflect.TypeOf((*Scanner)(nil)).Elem()

type Scanner interface {

	/**
	Returns pre-scanned items
	*/
	Beans() []interface{}
}
