/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"strings"
)

var factoryClass = reflect.TypeOf((*Factory)(nil))

/**
Factory turns bean definitions in to live, ordered and wired singletons.

Designed for one initializing goroutine, concurrent mutation must be serialized by the caller.
Read-only Get calls are safe only after InitializeAll and without further mutation.
*/
type Factory struct {

	/**
	Bean definitions by name in registration order
	*/
	registry *DefinitionRegistry

	/**
	Classes available for instantiation by name
	*/
	classes map[string]*Class

	/**
	Live singletons by bean name
	*/
	singletons map[string]interface{}

	/**
	Singleton names in creation order, used for type scans and reverse destruction
	*/
	creationOrder []string

	/**
	Lifecycle state of singletons
	*/
	lifecycle map[string]BeanLifecycle

	/**
	Beans currently mid-construction, stack keeps the order for messages
	*/
	inCreation map[string]bool
	stack      []string

	/**
	Post processor pipeline in registration order
	*/
	processors []BeanPostProcessor

	ctorResolver *ConstructorResolver
}

func New() *Factory {
	return NewFactory(NewRegistry())
}

/**
Creates factory on top of existing registry, the factory never modifies definitions it holds.
*/
func NewFactory(registry *DefinitionRegistry) *Factory {
	return &Factory{
		registry:     registry,
		classes:      make(map[string]*Class),
		singletons:   make(map[string]interface{}),
		lifecycle:    make(map[string]BeanLifecycle),
		inCreation:   make(map[string]bool),
		ctorResolver: NewConstructorResolver(),
	}
}

func (t *Factory) Registry() *DefinitionRegistry {
	return t.registry
}

func (t *Factory) RegisterClass(class *Class) error {
	if class == nil {
		return newError(ErrFactory, "", "nil class")
	}
	name := class.Name()
	if _, ok := t.classes[name]; ok {
		return newError(ErrDuplicateName, "", "class '%s' is already registered", name)
	}
	tracef("Class %s, constructors %v\n", name, ctorNames(class.Constructors()))
	t.classes[name] = class
	return nil
}

func (t *Factory) Class(name string) (*Class, bool) {
	class, ok := t.classes[name]
	return class, ok
}

func (t *Factory) RegisterDefinition(name string, def *BeanDefinition) error {
	if err := t.registry.Register(name, def); err != nil {
		return err
	}
	tracef("Definition '%s' %v\n", name, def)
	return nil
}

func (t *Factory) Definition(name string) (*BeanDefinition, error) {
	return t.registry.Get(name)
}

func (t *Factory) AddPostProcessor(processor BeanPostProcessor) {
	if aware, ok := processor.(BeanFactoryAware); ok {
		aware.SetBeanFactory(t)
	}
	tracef("PostProcessor %T\n", processor)
	t.processors = append(t.processors, processor)
}

/**
Materializes every singleton definition.

Each pass visits pending beans in registration order, a bean whose 'dependsOn' beans are not
materialized yet is deferred to the next pass. Fails when a whole pass makes no progress.
*/
func (t *Factory) InitializeAll() error {

	var pending []string
	for _, name := range t.registry.Names() {
		def, err := t.registry.Get(name)
		if err != nil {
			return err
		}
		if def.IsSingleton() {
			pending = append(pending, name)
		}
	}

	for pass := 1; len(pending) > 0; pass++ {

		var deferred []string
		for _, name := range pending {

			def, err := t.registry.Get(name)
			if err != nil {
				return err
			}

			waiting, err := t.waitingFor(name, def)
			if err != nil {
				return err
			}

			if len(waiting) > 0 {
				tracef("Defer bean '%s' on pass %d, waiting for %v\n", name, pass, waiting)
				deferred = append(deferred, name)
				continue
			}

			if _, err := t.getOrCreate(name, def); err != nil {
				return err
			}
		}

		if len(deferred) == len(pending) {
			return newError(ErrUnresolvedDependency, "", "unresolved or circular dependencies of beans %v after %d passes", deferred, pass).withNames(deferred...)
		}
		pending = deferred
	}

	return nil
}

/**
Returns 'dependsOn' singletons of the bean that are not materialized yet.
Reference to the unknown bean is a static configuration fault.
*/
func (t *Factory) waitingFor(name string, def *BeanDefinition) ([]string, error) {
	var waiting []string
	for _, dep := range def.DependsOn() {
		depDef, err := t.registry.Get(dep)
		if err != nil {
			return nil, newError(ErrMissingDependency, name, "dependency not found for bean: %s", dep).withNames(dep)
		}
		if !depDef.IsSingleton() {
			continue
		}
		if _, ok := t.singletons[dep]; !ok {
			waiting = append(waiting, dep)
		}
	}
	return waiting, nil
}

/**
Single code path for eager and lazy materialization.
*/
func (t *Factory) getOrCreate(name string, def *BeanDefinition) (interface{}, error) {

	if def.IsSingleton() {
		if obj, ok := t.singletons[name]; ok {
			return obj, nil
		}
	}

	if t.inCreation[name] {
		cycle := t.cycle(name)
		return nil, newError(ErrCurrentlyInCreation, name, "bean '%s' is currently in creation, detected cycle dependency %s", name, strings.Join(cycle, "->")).withNames(cycle...)
	}

	t.inCreation[name] = true
	t.stack = append(t.stack, name)
	defer func() {
		delete(t.inCreation, name)
		t.stack = t.stack[:len(t.stack)-1]
	}()

	tracef("%sConstruct Bean '%s' %v\n", indent(len(t.stack)-1), name, def)

	// lazy path, eager path has them ready already
	for _, dep := range def.DependsOn() {
		depDef, err := t.registry.Get(dep)
		if err != nil {
			return nil, newError(ErrMissingDependency, name, "dependency not found for bean: %s", dep).withNames(dep)
		}
		if _, err := t.getOrCreate(dep, depDef); err != nil {
			return nil, err
		}
	}

	singleton := def.IsSingleton()
	if singleton {
		t.lifecycle[name] = BeanCreating
	}

	obj, err := t.instantiate(name, def)
	if err == nil {
		obj, err = t.initialize(name, obj, singleton)
	}
	if err != nil {
		if singleton {
			delete(t.lifecycle, name)
		}
		return nil, err
	}

	if singleton {
		t.store(name, obj)
	}
	return obj, nil
}

func (t *Factory) cycle(name string) []string {
	for i, n := range t.stack {
		if n == name {
			out := append([]string{}, t.stack[i:]...)
			return append(out, name)
		}
	}
	return []string{name}
}

func (t *Factory) instantiate(name string, def *BeanDefinition) (interface{}, error) {

	ctor, class, err := t.resolveInstantiation(name, def)
	if err != nil {
		return nil, err
	}

	if ctor == nil {
		return t.ctorResolver.Instantiate(class)
	}

	args, err := t.ctorResolver.BuildArguments(ctor, t.resolverFor(name))
	if err != nil {
		return nil, errors.WithMessagef(err, "create bean '%s'", name)
	}

	obj, err := t.ctorResolver.Invoke(ctor, args)
	if err != nil {
		return nil, errors.WithMessagef(err, "create bean '%s'", name)
	}
	return obj, nil
}

/**
Pipes fresh instance through before-initialization and then after-initialization hooks.
*/
func (t *Factory) initialize(name string, obj interface{}, singleton bool) (interface{}, error) {

	if singleton {
		t.lifecycle[name] = BeanRaw
	}

	obj, err := applyPostProcessors(t.processors, beforeInitialization, "before initialization", obj, name)
	if err != nil {
		return nil, err
	}

	if singleton {
		t.lifecycle[name] = BeanBeforeInitialized
	}

	return applyPostProcessors(t.processors, afterInitialization, "after initialization", obj, name)
}

func (t *Factory) store(name string, obj interface{}) {
	t.singletons[name] = obj
	t.creationOrder = append(t.creationOrder, name)
	t.lifecycle[name] = BeanInitialized
	tracef("%sSingleton '%s' with type '%T'\n", indent(len(t.stack)), name, obj)
}

/**
Picks the constructor of the bean: factory method of the factory bean, named constructor of the class,
or the autowiring constructor of the class. Nil constructor means implicit one of the class.
*/
func (t *Factory) resolveInstantiation(name string, def *BeanDefinition) (*Constructor, *Class, error) {

	method := def.FactoryMethodName()
	if method != "" {

		if factoryBeanName := def.FactoryBeanName(); factoryBeanName != "" {

			factoryDef, err := t.registry.Get(factoryBeanName)
			if err != nil {
				return nil, nil, newError(ErrBeanNotFound, name, "factory bean '%s' of bean '%s' not found", factoryBeanName, name)
			}

			factoryObj, err := t.getOrCreate(factoryBeanName, factoryDef)
			if err != nil {
				return nil, nil, err
			}

			fn := reflect.ValueOf(factoryObj).MethodByName(method)
			if !fn.IsValid() {
				return nil, nil, newError(ErrFactory, name, "factory method '%s' not found on bean '%s' with type '%T'", method, factoryBeanName, factoryObj)
			}

			ctor := &Constructor{name: factoryBeanName + "." + method, fn: fn}
			if err := ctor.validate(); err != nil {
				return nil, nil, err
			}
			return ctor, nil, nil
		}

		class, err := t.classOf(name, def)
		if err != nil {
			return nil, nil, err
		}
		ctor, ok := class.constructor(method)
		if !ok {
			return nil, nil, newError(ErrFactory, name, "factory method '%s' not found in class '%s'", method, class.Name())
		}
		return ctor, class, nil
	}

	class, err := t.classOf(name, def)
	if err != nil {
		return nil, nil, err
	}

	ctor, err := t.ctorResolver.ResolveConstructor(class)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "bean '%s'", name)
	}
	return ctor, class, nil
}

func (t *Factory) classOf(name string, def *BeanDefinition) (*Class, error) {
	className := def.ClassName()
	if className == "" {
		return nil, newError(ErrFactory, name, "bean class name is not set for bean: %s", name)
	}
	class, ok := t.classes[className]
	if !ok {
		return nil, newError(ErrFactory, name, "class with name not found: %s", className)
	}
	return class, nil
}

/**
Declared or inferred type of the bean, the live instance wins if exist.
*/
func (t *Factory) beanType(name string, def *BeanDefinition) (reflect.Type, error) {
	return t.inferType(name, def, nil)
}

// chain holds the factory bean references followed so far
func (t *Factory) inferType(name string, def *BeanDefinition, chain []string) (reflect.Type, error) {

	if obj, ok := t.singletons[name]; ok {
		return reflect.TypeOf(obj), nil
	}

	for i, n := range chain {
		if n == name {
			cycle := append(append([]string{}, chain[i:]...), name)
			return nil, newError(ErrCurrentlyInCreation, name, "circular factory bean reference %s", strings.Join(cycle, "->")).withNames(cycle...)
		}
	}
	chain = append(chain, name)

	method := def.FactoryMethodName()
	if method != "" {

		if factoryBeanName := def.FactoryBeanName(); factoryBeanName != "" {
			factoryDef, err := t.registry.Get(factoryBeanName)
			if err != nil {
				return nil, newError(ErrBeanNotFound, name, "factory bean '%s' of bean '%s' not found", factoryBeanName, name)
			}
			factoryType, err := t.inferType(factoryBeanName, factoryDef, chain)
			if err != nil {
				return nil, err
			}
			m, ok := factoryType.MethodByName(method)
			if !ok || m.Type.NumOut() == 0 {
				return nil, newError(ErrFactory, name, "factory method '%s' not found on type '%v'", method, factoryType)
			}
			return m.Type.Out(0), nil
		}

		class, err := t.classOf(name, def)
		if err != nil {
			return nil, err
		}
		if ctor, ok := class.constructor(method); ok {
			return ctor.Out(), nil
		}
		return nil, newError(ErrFactory, name, "factory method '%s' not found in class '%s'", method, class.Name())
	}

	class, err := t.classOf(name, def)
	if err != nil {
		return nil, err
	}
	return class.Type(), nil
}

func (t *Factory) Get(name string) (interface{}, error) {
	if obj, ok := t.singletons[name]; ok {
		return obj, nil
	}
	def, err := t.registry.Get(name)
	if err != nil {
		return nil, newError(ErrBeanNotFound, name, "bean '%s' not found", name)
	}
	return t.getOrCreate(name, def)
}

func (t *Factory) GetAs(name string, requiredType reflect.Type) (interface{}, error) {
	obj, err := t.Get(name)
	if err != nil {
		return nil, err
	}
	if !reflect.TypeOf(obj).AssignableTo(requiredType) {
		return nil, newError(ErrTypeMismatch, name, "bean with a name '%s' is not compatible with the type '%v'", name, requiredType)
	}
	return obj, nil
}

/**
Scans live singletons for the single assignable one, with more than one match the primary bean wins.
When no singleton matches, the bean is resolved from definitions and created lazily.
*/
func (t *Factory) GetByType(requiredType reflect.Type) (interface{}, error) {

	if requiredType == nil {
		return nil, newError(ErrBeanNotFound, "", "bean not found for nil type")
	}

	var matches []string
	for _, name := range t.creationOrder {
		if reflect.TypeOf(t.singletons[name]).AssignableTo(requiredType) {
			matches = append(matches, name)
		}
	}

	desc := NewDependencyDescriptor("", requiredType)
	switch len(matches) {
	case 0:
		obj, err := t.resolveSingle("", desc)
		if errors.Is(err, ErrMissingBean) {
			return nil, newError(ErrBeanNotFound, "", "bean not found for type: %v", requiredType)
		}
		return obj, err
	case 1:
		return t.singletons[matches[0]], nil
	default:
		name, err := t.determineCandidate(desc, matches)
		if err != nil {
			return nil, err
		}
		return t.singletons[name], nil
	}
}

/**
Ad-hoc creation bypassing definitions, the bean is registered under the class name of the type.
*/
func (t *Factory) CreateBean(typ reflect.Type) (interface{}, error) {

	if typ == nil {
		return nil, newError(ErrFactory, "", "can not create bean of nil type")
	}

	for _, name := range t.creationOrder {
		if reflect.TypeOf(t.singletons[name]).AssignableTo(typ) {
			return nil, newError(ErrNotUnique, name, "bean with type '%s' already exists", ClassName(typ)).withNames(name)
		}
	}

	name := ClassName(typ)
	if t.registry.Contains(name) {
		return nil, newError(ErrDuplicateName, name, "bean definition with name '%s' is already registered", name)
	}

	class, ok := t.classes[name]
	if !ok || class.Type() != typ {
		class = &Class{typ: typ}
	}

	var obj interface{}
	var err error
	if len(class.Constructors()) == 0 {
		obj, err = t.ctorResolver.Instantiate(class)
	} else {
		obj, err = t.invokeNoArg(class)
	}
	if err != nil {
		return nil, err
	}

	def := NewDefinition(name)
	if err := t.registry.Register(name, def); err != nil {
		return nil, err
	}

	obj, err = t.initialize(name, obj, true)
	if err != nil {
		delete(t.lifecycle, name)
		t.registry.Remove(name)
		return nil, err
	}

	t.store(name, obj)
	return obj, nil
}

func (t *Factory) invokeNoArg(class *Class) (interface{}, error) {
	for _, ctor := range class.Constructors() {
		if ctor.NumParams() == 0 {
			return t.ctorResolver.Invoke(ctor, nil)
		}
	}
	return nil, newError(ErrConstruction, "", "class '%s' has no zero-argument constructor", class.Name())
}

/**
Registers pre-built instance, it does not go through post processors.
Nil definition means default singleton definition of the instance class.
*/
func (t *Factory) RegisterInstance(name string, def *BeanDefinition, obj interface{}) error {

	if isNil(obj) {
		return newError(ErrFactory, name, "nil instance for bean '%s'", name)
	}
	if def == nil {
		def = NewDefinition(ClassName(reflect.TypeOf(obj)))
	}
	if _, ok := t.singletons[name]; ok {
		return newError(ErrDuplicateName, name, "bean '%s' already exists", name)
	}

	if existing, err := t.registry.Get(name); err == nil {
		if existing != def {
			return newError(ErrDuplicateName, name, "bean definition with name '%s' is already registered", name)
		}
	} else if err := t.registry.Register(name, def); err != nil {
		return err
	}

	if def.IsSingleton() {
		t.store(name, obj)
	}
	return nil
}

func (t *Factory) ContainsBean(name string) bool {
	if _, ok := t.singletons[name]; ok {
		return true
	}
	return t.registry.Contains(name)
}

/**
Names of live singletons in creation order.
*/
func (t *Factory) SingletonNames() []string {
	out := make([]string, len(t.creationOrder))
	copy(out, t.creationOrder)
	return out
}

/**
Names of registered bean definitions in registration order.
*/
func (t *Factory) BeanNames() []string {
	return t.registry.Names()
}

func (t *Factory) Lifecycle(name string) BeanLifecycle {
	return t.lifecycle[name]
}

func (t *Factory) DestroyBean(name string) error {

	obj, ok := t.singletons[name]
	if !ok {
		return newError(ErrBeanNotFound, name, "bean '%s' not found", name)
	}

	tracef("Destroy bean '%s' with type '%T'\n", name, obj)
	err := applyDestruction(t.processors, obj, name)

	delete(t.singletons, name)
	for i, n := range t.creationOrder {
		if n == name {
			t.creationOrder = append(t.creationOrder[:i], t.creationOrder[i+1:]...)
			break
		}
	}
	t.lifecycle[name] = BeanDestroyed
	return err
}

// destroy in reverse creation order
func (t *Factory) Close() error {
	var listErr []error
	for j := len(t.creationOrder) - 1; j >= 0; j-- {
		if err := t.DestroyBean(t.creationOrder[j]); err != nil {
			listErr = append(listErr, err)
		}
	}
	return multipleErr(listErr)
}

func (t *Factory) String() string {
	return fmt.Sprintf("Factory [definitions=%d, classes=%d, singletons=%d, processors=%d]", t.registry.Count(), len(t.classes), len(t.singletons), len(t.processors))
}

func indent(n int) string {
	return strings.Repeat("  ", n)
}
