/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

var errorClass = reflect.TypeOf((*error)(nil)).Elem()

/**
Constructor is a function that produces instance of the class.

Supported signatures are func(args...) T and func(args...) (T, error).
*/
type Constructor struct {

	/**
	Simple name of the function, used by factory method lookup
	*/
	name string

	/**
	Reflect value of the function
	*/
	fn reflect.Value

	/**
	Names of parameters, Go does not keep them in runtime
	*/
	paramNames []string

	/**
	Explicit autowiring target among multiple constructors
	*/
	autowired bool
}

func Ctor(fn interface{}, paramNames ...string) *Constructor {
	value := reflect.ValueOf(fn)
	return &Constructor{
		name:       funcName(value),
		fn:         value,
		paramNames: paramNames,
	}
}

/**
Marks constructor as the explicit autowiring target.
*/
func (t *Constructor) Autowired() *Constructor {
	t.autowired = true
	return t
}

/**
Overrides the name of the constructor, closures do not have a meaningful one.
*/
func (t *Constructor) Named(name string) *Constructor {
	t.name = name
	return t
}

func (t *Constructor) Name() string {
	return t.name
}

func (t *Constructor) IsAutowired() bool {
	return t.autowired
}

func (t *Constructor) NumParams() int {
	return t.fn.Type().NumIn()
}

func (t *Constructor) ParamName(i int) string {
	if i < len(t.paramNames) {
		return t.paramNames[i]
	}
	return ""
}

func (t *Constructor) ParamType(i int) reflect.Type {
	return t.fn.Type().In(i)
}

/**
Type of produced instance
*/
func (t *Constructor) Out() reflect.Type {
	return t.fn.Type().Out(0)
}

func (t *Constructor) validate() error {
	if !t.fn.IsValid() || t.fn.Kind() != reflect.Func {
		return newError(ErrFactory, "", "constructor must be a function, but was '%v'", t.fn.Kind())
	}
	if t.fn.IsNil() {
		return newError(ErrFactory, "", "nil constructor function")
	}
	fnType := t.fn.Type()
	if fnType.IsVariadic() {
		return newError(ErrFactory, "", "variadic constructor '%s' with type '%v' is not supported", t.name, fnType)
	}
	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errorClass {
			return newError(ErrFactory, "", "second result of constructor '%s' must be error, but was '%v'", t.name, fnType.Out(1))
		}
	default:
		return newError(ErrFactory, "", "constructor '%s' must return instance and optional error, but type is '%v'", t.name, fnType)
	}
	switch fnType.Out(0).Kind() {
	case reflect.Ptr, reflect.Interface:
	default:
		return newError(ErrFactory, "", "constructor '%s' can produce ptr or interface, but type is '%v'", t.name, fnType.Out(0))
	}
	if len(t.paramNames) > fnType.NumIn() {
		return newError(ErrFactory, "", "constructor '%s' has %d parameters, but %d names given", t.name, fnType.NumIn(), len(t.paramNames))
	}
	return nil
}

func (t *Constructor) String() string {
	if !t.fn.IsValid() {
		return t.name
	}
	return fmt.Sprintf("%s%v", t.name, t.fn.Type())
}

/**
Class is the concrete type available for instantiation by name with its exposed constructors.
Class without constructors is instantiated by the implicit zero-argument constructor.
*/
type Class struct {
	typ          reflect.Type
	constructors []*Constructor
}

/**
Creates class from constructors, the class type is the result type of the constructors.
*/
func ClassOf(ctors ...*Constructor) (*Class, error) {
	if len(ctors) == 0 {
		return nil, newError(ErrFactory, "", "class requires at least one constructor or explicit type")
	}
	if err := ctors[0].validate(); err != nil {
		return nil, err
	}
	return ClassFor(ctors[0].Out(), ctors...)
}

func ClassFor(typ reflect.Type, ctors ...*Constructor) (*Class, error) {
	if typ == nil {
		return nil, newError(ErrFactory, "", "nil class type")
	}
	for _, ctor := range ctors {
		if err := ctor.validate(); err != nil {
			return nil, err
		}
		if ctor.Out() != typ {
			return nil, newError(ErrFactory, "", "constructor '%s' produces '%v', but class type is '%v'", ctor.name, ctor.Out(), typ)
		}
	}
	return &Class{typ: typ, constructors: ctors}, nil
}

func (t *Class) Type() reflect.Type {
	return t.typ
}

func (t *Class) Name() string {
	return ClassName(t.typ)
}

func (t *Class) Constructors() []*Constructor {
	return t.constructors
}

func (t *Class) constructor(name string) (*Constructor, bool) {
	for _, ctor := range t.constructors {
		if ctor.name == name {
			return ctor, true
		}
	}
	return nil, false
}

func (t *Class) String() string {
	return fmt.Sprintf("<Class %s constructors=%d>", t.Name(), len(t.constructors))
}

/**
Fully qualified name of the type, pointer types are named after their element.

Example:
	ClassName(reflect.TypeOf(&app.UserService{})) == "github.com/example/app.UserService"
*/
func ClassName(typ reflect.Type) string {
	if typ == nil {
		return ""
	}
	elem := typ
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Name() == "" {
		return typ.String()
	}
	if elem.PkgPath() == "" {
		return elem.Name()
	}
	return elem.PkgPath() + "." + elem.Name()
}

/**
Default bean name, the simple type name with lower-cased first letter.
*/
func DefaultBeanName(typ reflect.Type) string {
	name := ClassName(typ)
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	return lowerFirst(name)
}

func lowerFirst(s string) string {
	r, w := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[w:]
}

func funcName(fn reflect.Value) string {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
