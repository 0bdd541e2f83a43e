/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"github.com/pkg/errors"
	"reflect"
)

func (t *Factory) ResolveDependency(desc *DependencyDescriptor) (interface{}, error) {
	return t.ResolveDependencyFor("", desc)
}

func (t *Factory) ResolveDependencyFor(requester string, desc *DependencyDescriptor) (interface{}, error) {
	if desc == nil || desc.Type == nil {
		return nil, newError(ErrFactory, requester, "empty dependency descriptor")
	}
	value, err := t.resolveValue(requester, desc)
	if err != nil {
		return nil, err
	}
	return value.Interface(), nil
}

/**
Resolve function used for constructor parameters of the requesting bean.
*/
func (t *Factory) resolverFor(requester string) ResolveFunc {
	return func(desc *DependencyDescriptor) (reflect.Value, error) {
		return t.resolveValue(requester, desc)
	}
}

func (t *Factory) resolveValue(requester string, desc *DependencyDescriptor) (reflect.Value, error) {

	if desc.Type == BeanFactoryClass || desc.Type == factoryClass {
		return reflect.ValueOf(t), nil
	}

	switch desc.Kind() {

	case ListDependency:
		list, err := t.resolveAll(requester, desc.ElemType)
		if err != nil {
			return reflect.Value{}, err
		}
		value := reflect.MakeSlice(desc.Type, 0, len(list))
		for _, obj := range list {
			value = reflect.Append(value, reflect.ValueOf(obj))
		}
		return value, nil

	case SetDependency:
		list, err := t.resolveAll(requester, desc.ElemType)
		if err != nil {
			return reflect.Value{}, err
		}
		value := reflect.MakeMapWithSize(desc.Type, len(list))
		present := reflect.Zero(desc.Type.Elem())
		if desc.Type.Elem().Kind() == reflect.Bool {
			present = reflect.ValueOf(true)
		}
		for _, obj := range list {
			value.SetMapIndex(reflect.ValueOf(obj), present)
		}
		return value, nil

	case MapDependency:
		list, err := t.resolveAll(requester, desc.ElemType)
		if err != nil {
			return reflect.Value{}, err
		}
		value := reflect.MakeMapWithSize(desc.Type, len(list))
		for _, obj := range list {
			key := reflect.ValueOf(ClassName(reflect.TypeOf(obj)))
			if value.MapIndex(key).IsValid() {
				return reflect.Value{}, newError(ErrFactory, requester, "duplicate key '%s' in map of '%v' requested by bean '%s'", key.String(), desc.ElemType, requester)
			}
			value.SetMapIndex(key, reflect.ValueOf(obj))
		}
		return value, nil

	default:
		obj, err := t.resolveSingle(requester, desc)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(obj), nil
	}
}

/**
Materializes every candidate assignable to the element type in registry order.
The requesting bean is never a member of its own collection.
*/
func (t *Factory) resolveAll(requester string, elemType reflect.Type) ([]interface{}, error) {
	names, err := t.findCandidates(elemType)
	if err != nil {
		return nil, err
	}
	var list []interface{}
	for _, name := range names {
		if name == requester {
			continue
		}
		obj, err := t.Get(name)
		if err != nil {
			return nil, err
		}
		list = append(list, obj)
	}
	return list, nil
}

func (t *Factory) resolveSingle(requester string, desc *DependencyDescriptor) (interface{}, error) {
	names, err := t.findCandidates(desc.Type)
	if err != nil {
		return nil, err
	}
	var name string
	switch len(names) {
	case 0:
		return nil, newError(ErrMissingBean, requester, "no candidates found for '%v' required by bean '%s'", desc, requester)
	case 1:
		name = names[0]
	default:
		if name, err = t.determineCandidate(desc, names); err != nil {
			return nil, err
		}
	}
	return t.Get(name)
}

/**
Names of autowire candidates assignable to the type in registry order.
*/
func (t *Factory) findCandidates(typ reflect.Type) ([]string, error) {
	var out []string
	for _, name := range t.registry.Names() {
		def, err := t.registry.Get(name)
		if err != nil || !def.IsAutowireCandidate() {
			continue
		}
		beanType, err := t.beanType(name, def)
		if err != nil {
			return nil, errors.WithMessagef(err, "candidate '%s' for '%v'", name, typ)
		}
		if beanType.AssignableTo(typ) {
			out = append(out, name)
		}
	}
	return out, nil
}

/**
Tie-break among multiple candidates: the name hint of the descriptor first, then the single primary bean.
*/
func (t *Factory) determineCandidate(desc *DependencyDescriptor, names []string) (string, error) {

	if desc.HasName() {
		for _, name := range names {
			if name == desc.Name {
				return name, nil
			}
		}
	}

	var primary []string
	for _, name := range names {
		if def, err := t.registry.Get(name); err == nil && def.IsPrimary() {
			primary = append(primary, name)
		}
	}
	if len(primary) == 1 {
		return primary[0], nil
	}

	var types []string
	for _, name := range names {
		types = append(types, t.typeName(name))
	}
	return "", newError(ErrAmbiguousDependency, "", "expected single bean for '%v', but found %d candidates %v with types %v", desc, len(names), names, types).withNames(types...)
}

func (t *Factory) typeName(name string) string {
	if obj, ok := t.singletons[name]; ok {
		return ClassName(reflect.TypeOf(obj))
	}
	if def, err := t.registry.Get(name); err == nil {
		if typ, err := t.beanType(name, def); err == nil {
			return ClassName(typ)
		}
	}
	return name
}
