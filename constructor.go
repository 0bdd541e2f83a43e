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
Resolves the dependency described by the descriptor to the value of the parameter.
*/
type ResolveFunc func(desc *DependencyDescriptor) (reflect.Value, error)

/**
Constructor resolver picks the autowiring constructor of the class, builds the arguments and invokes it.
*/
type ConstructorResolver struct {
}

func NewConstructorResolver() *ConstructorResolver {
	return &ConstructorResolver{}
}

/**
Returns the single exposed constructor, or the explicitly marked one among many.
Returns nil when class has no constructors, then the implicit one is used.
*/
func (t *ConstructorResolver) ResolveConstructor(class *Class) (*Constructor, error) {
	ctors := class.Constructors()
	switch len(ctors) {
	case 0:
		return nil, nil
	case 1:
		return ctors[0], nil
	}
	var explicit []*Constructor
	for _, ctor := range ctors {
		if ctor.IsAutowired() {
			explicit = append(explicit, ctor)
		}
	}
	switch len(explicit) {
	case 1:
		return explicit[0], nil
	case 0:
		return nil, newError(ErrAmbiguousConstructor, "", "can not choose constructor for class '%s', it has %d constructors and none is marked as autowired", class.Name(), len(ctors)).withNames(ctorNames(ctors)...)
	default:
		return nil, newError(ErrAmbiguousConstructor, "", "can not choose constructor for class '%s', it has multiple constructors marked as autowired", class.Name()).withNames(ctorNames(explicit)...)
	}
}

/**
Builds positional arguments, each parameter is resolved by the descriptor with parameter name and type.
*/
func (t *ConstructorResolver) BuildArguments(ctor *Constructor, resolve ResolveFunc) ([]reflect.Value, error) {
	n := ctor.NumParams()
	args := make([]reflect.Value, 0, n)
	for i := 0; i < n; i++ {
		desc := NewDependencyDescriptor(ctor.ParamName(i), ctor.ParamType(i))
		value, err := resolve(desc)
		if err != nil {
			return nil, errors.WithMessagef(err, "argument %d '%v' of constructor '%s'", i, desc, ctor.Name())
		}
		if !value.IsValid() {
			value = reflect.Zero(desc.Type)
		}
		if !value.Type().AssignableTo(desc.Type) {
			return nil, newError(ErrTypeMismatch, "", "argument %d of constructor '%s' requires '%v', but resolved '%v'", i, ctor.Name(), desc.Type, value.Type())
		}
		args = append(args, value)
	}
	return args, nil
}

/**
Invokes the constructor, any failure or panic of the function is a construction error.
*/
func (t *ConstructorResolver) Invoke(ctor *Constructor, args []reflect.Value) (obj interface{}, err error) {

	defer func() {
		if r := recover(); r != nil {
			obj = nil
			err = newError(ErrConstruction, "", "constructor '%s' recovered with error %v", ctor.Name(), r)
		}
	}()

	results := ctor.fn.Call(args)
	if len(results) == 2 && !results[1].IsNil() {
		return nil, wrapError(ErrConstruction, results[1].Interface().(error), "", "constructor '%s' failed", ctor.Name())
	}
	if isNilValue(results[0]) {
		return nil, newError(ErrConstruction, "", "constructor '%s' returned nil", ctor.Name())
	}
	return results[0].Interface(), nil
}

/**
Implicit zero-argument constructor, allocates zero value of the struct.
*/
func (t *ConstructorResolver) Instantiate(class *Class) (interface{}, error) {
	typ := class.Type()
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, newError(ErrConstruction, "", "class '%s' has no constructors and type '%v' is not a pointer to struct", class.Name(), typ)
	}
	return reflect.New(typ.Elem()).Interface(), nil
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func isNil(obj interface{}) bool {
	if obj == nil {
		return true
	}
	return isNilValue(reflect.ValueOf(obj))
}

func ctorNames(list []*Constructor) []string {
	var out []string
	for _, ctor := range list {
		out = append(out, ctor.Name())
	}
	return out
}
