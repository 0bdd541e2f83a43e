/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"fmt"
	"reflect"
)

type DependencyKind int

const (
	SingleDependency DependencyKind = iota
	ListDependency
	SetDependency
	MapDependency
)

func (t DependencyKind) String() string {
	switch t {
	case ListDependency:
		return "List"
	case SetDependency:
		return "Set"
	case MapDependency:
		return "Map"
	default:
		return "Single"
	}
}

/**
Dependency descriptor is a query value: "something of type T, optionally named N".

Collection requests are recognized by the shape of the type:
	[]T                 list of all candidates assignable to T
	map[T]struct{}      set of all candidates, map[T]bool is accepted as well
	map[string]T        candidates keyed by the class name of the concrete instance
*/
type DependencyDescriptor struct {
	Name     string
	Type     reflect.Type
	ElemType reflect.Type
	kind     DependencyKind
}

func NewDependencyDescriptor(name string, typ reflect.Type) *DependencyDescriptor {
	d := &DependencyDescriptor{
		Name:     name,
		Type:     typ,
		ElemType: typ,
		kind:     SingleDependency,
	}
	if typ == nil {
		return d
	}
	switch typ.Kind() {
	case reflect.Slice:
		if isBeanType(typ.Elem()) {
			d.kind = ListDependency
			d.ElemType = typ.Elem()
		}
	case reflect.Map:
		key, value := typ.Key(), typ.Elem()
		switch {
		case key.Kind() == reflect.String && isBeanType(value):
			d.kind = MapDependency
			d.ElemType = value
		case isBeanType(key) && isSetValue(value):
			d.kind = SetDependency
			d.ElemType = key
		}
	}
	return d
}

func (t *DependencyDescriptor) Kind() DependencyKind {
	return t.kind
}

func (t *DependencyDescriptor) IsCollection() bool {
	return t.kind != SingleDependency
}

func (t *DependencyDescriptor) HasName() bool {
	return t.Name != ""
}

func (t *DependencyDescriptor) String() string {
	if t.Name != "" {
		return fmt.Sprintf("%v(%s)", t.Type, t.Name)
	}
	return fmt.Sprintf("%v", t.Type)
}

func isBeanType(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Ptr, reflect.Interface:
		return true
	default:
		return false
	}
}

func isSetValue(typ reflect.Type) bool {
	return typ.Kind() == reflect.Bool || (typ.Kind() == reflect.Struct && typ.NumField() == 0)
}
