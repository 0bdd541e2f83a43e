/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"github.com/pkg/errors"
	"reflect"
)

/**
Lifecycle post processor runs initialization and destruction callbacks of beans.

Before initialization it calls InitializingBean.PostConstruct and then the init method of the definition.
Before destruction it calls DisposableBean.Destroy and then the destroy method of the definition.
Beans registered without definition only get the interface callbacks.
*/
type LifecyclePostProcessor struct {
	factory BeanFactory
}

func NewLifecyclePostProcessor() *LifecyclePostProcessor {
	return &LifecyclePostProcessor{}
}

func (t *LifecyclePostProcessor) SetBeanFactory(factory BeanFactory) {
	t.factory = factory
}

func (t *LifecyclePostProcessor) PostProcessBeforeInitialization(bean interface{}, name string) (interface{}, error) {

	if initializing, ok := bean.(InitializingBean); ok {
		tracef("PostConstruct bean '%s' with type '%T'\n", name, bean)
		if err := initializing.PostConstruct(); err != nil {
			return nil, errors.WithMessagef(err, "post construct of bean '%s'", name)
		}
	}

	if method := t.definition(name).InitMethodName(); method != "" {
		tracef("Init method '%s' of bean '%s'\n", method, name)
		if err := callMethod(bean, method); err != nil {
			return nil, errors.WithMessagef(err, "init method of bean '%s'", name)
		}
	}

	return bean, nil
}

func (t *LifecyclePostProcessor) PostProcessAfterInitialization(bean interface{}, name string) (interface{}, error) {
	return bean, nil
}

func (t *LifecyclePostProcessor) PostProcessBeforeDestruction(bean interface{}, name string) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("destroy of bean '%s' recovered with error %v", name, r)
		}
	}()

	var listErr []error
	if disposable, ok := bean.(DisposableBean); ok {
		tracef("Destroy bean '%s' with type '%T'\n", name, bean)
		if err := disposable.Destroy(); err != nil {
			listErr = append(listErr, errors.WithMessagef(err, "destroy of bean '%s'", name))
		}
	}

	if method := t.definition(name).DestroyMethodName(); method != "" {
		tracef("Destroy method '%s' of bean '%s'\n", method, name)
		if err := callMethod(bean, method); err != nil {
			listErr = append(listErr, errors.WithMessagef(err, "destroy method of bean '%s'", name))
		}
	}

	return multipleErr(listErr)
}

// empty definition when bean has none
func (t *LifecyclePostProcessor) definition(name string) *BeanDefinition {
	if t.factory != nil {
		if def, err := t.factory.Definition(name); err == nil {
			return def
		}
	}
	return &BeanDefinition{}
}

/**
Calls method without arguments, the method could return nothing or an error.
*/
func callMethod(bean interface{}, method string) error {
	fn := reflect.ValueOf(bean).MethodByName(method)
	if !fn.IsValid() {
		return errors.Errorf("method '%s' not found in type '%T'", method, bean)
	}
	fnType := fn.Type()
	if fnType.NumIn() != 0 {
		return errors.Errorf("method '%s' of type '%T' must have no parameters", method, bean)
	}
	results := fn.Call(nil)
	if len(results) > 0 {
		last := results[len(results)-1]
		if last.Type() == errorClass && !last.IsNil() {
			return last.Interface().(error)
		}
	}
	return nil
}
