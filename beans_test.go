/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter_test

import (
	"github.com/codeallergy/winter"
	"github.com/stretchr/testify/require"
	"reflect"
	"testing"
)

/**
Beans shared by factory tests
*/

type BeanA struct {
}

func NewBeanA() *BeanA {
	return &BeanA{}
}

type BeanB struct {
	A *BeanA
}

func NewBeanB(a *BeanA) *BeanB {
	return &BeanB{A: a}
}

type BeanC struct {
	A *BeanA
	B *BeanB
}

func NewBeanC(a *BeanA, b *BeanB) *BeanC {
	return &BeanC{A: a, B: b}
}

var (
	BeanAClass = reflect.TypeOf((*BeanA)(nil))
	BeanBClass = reflect.TypeOf((*BeanB)(nil))
	BeanCClass = reflect.TypeOf((*BeanC)(nil))
)

type Greeter interface {
	Greet() string
}

var GreeterClass = reflect.TypeOf((*Greeter)(nil)).Elem()

type englishGreeter struct {
}

func (t *englishGreeter) Greet() string {
	return "hello"
}

type frenchGreeter struct {
}

func (t *frenchGreeter) Greet() string {
	return "bonjour"
}

type germanGreeter struct {
}

func (t *germanGreeter) Greet() string {
	return "hallo"
}

func NewEnglishGreeter() *englishGreeter {
	return &englishGreeter{}
}

func NewFrenchGreeter() *frenchGreeter {
	return &frenchGreeter{}
}

func NewGermanGreeter() *germanGreeter {
	return &germanGreeter{}
}

func className(obj interface{}) string {
	return winter.ClassName(reflect.TypeOf(obj))
}

/**
Creates factory with classes of the given constructors.
*/
func newFactory(t *testing.T, ctors ...interface{}) *winter.Factory {
	f := winter.New()
	for _, fn := range ctors {
		var ctor *winter.Constructor
		switch c := fn.(type) {
		case *winter.Constructor:
			ctor = c
		default:
			ctor = winter.Ctor(fn)
		}
		class, err := winter.ClassOf(ctor)
		require.NoError(t, err)
		require.NoError(t, f.RegisterClass(class))
	}
	return f
}

func define(t *testing.T, f *winter.Factory, name string, obj interface{}, dependsOn ...string) *winter.BeanDefinition {
	def := winter.NewDefinition(className(obj)).SetDependsOn(dependsOn...)
	require.NoError(t, f.RegisterDefinition(name, def))
	return def
}

func factoryError(t *testing.T, err error) *winter.Error {
	var e *winter.Error
	require.ErrorAs(t, err, &e)
	return e
}
