/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"fmt"
	"strings"
)

type Scope string

const (
	SingletonScope Scope = "singleton"
	PrototypeScope Scope = "prototype"
)

/**
Parses scope name, empty string means singleton.
*/
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", SingletonScope:
		return SingletonScope, nil
	case PrototypeScope:
		return PrototypeScope, nil
	default:
		return "", newError(ErrFactory, "", "unknown scope '%s'", s)
	}
}

/**
Bean definition describes how to construct and manage one bean.
The factory never mutates registered definitions.
*/
type BeanDefinition struct {
	/**
	Name of the class registered in the factory, could be empty if factory method is used
	*/
	className string

	/**
	Singleton or prototype
	*/
	scope Scope

	/**
	Beans that should be fully constructed before this one
	*/
	dependsOn []string

	/**
	Eligible as a type-match target
	*/
	autowireCandidate bool

	/**
	Tie-breaker among multiple type matches
	*/
	primary bool

	/**
	Factory method indirection
	*/
	factoryBeanName   string
	factoryMethodName string

	/**
	Lifecycle method names
	*/
	initMethodName    string
	destroyMethodName string
}

func NewDefinition(className string) *BeanDefinition {
	return &BeanDefinition{
		className:         className,
		scope:             SingletonScope,
		autowireCandidate: true,
	}
}

func (t *BeanDefinition) ClassName() string {
	return t.className
}

func (t *BeanDefinition) SetClassName(className string) *BeanDefinition {
	t.className = className
	return t
}

func (t *BeanDefinition) Scope() Scope {
	return t.scope
}

/**
Sets scope of the bean, unknown scopes are rejected here and not at creation time.
*/
func (t *BeanDefinition) SetScope(scope Scope) error {
	s, err := ParseScope(string(scope))
	if err != nil {
		return err
	}
	t.scope = s
	return nil
}

func (t *BeanDefinition) IsSingleton() bool {
	return t.scope == SingletonScope
}

func (t *BeanDefinition) IsPrototype() bool {
	return t.scope == PrototypeScope
}

func (t *BeanDefinition) DependsOn() []string {
	out := make([]string, len(t.dependsOn))
	copy(out, t.dependsOn)
	return out
}

func (t *BeanDefinition) SetDependsOn(names ...string) *BeanDefinition {
	t.dependsOn = t.dependsOn[:0]
	visited := make(map[string]bool)
	for _, name := range names {
		if name == "" || visited[name] {
			continue
		}
		visited[name] = true
		t.dependsOn = append(t.dependsOn, name)
	}
	return t
}

func (t *BeanDefinition) IsAutowireCandidate() bool {
	return t.autowireCandidate
}

func (t *BeanDefinition) SetAutowireCandidate(candidate bool) *BeanDefinition {
	t.autowireCandidate = candidate
	return t
}

func (t *BeanDefinition) IsPrimary() bool {
	return t.primary
}

func (t *BeanDefinition) SetPrimary(primary bool) *BeanDefinition {
	t.primary = primary
	return t
}

func (t *BeanDefinition) FactoryBeanName() string {
	return t.factoryBeanName
}

func (t *BeanDefinition) SetFactoryBeanName(name string) *BeanDefinition {
	t.factoryBeanName = name
	return t
}

func (t *BeanDefinition) FactoryMethodName() string {
	return t.factoryMethodName
}

func (t *BeanDefinition) SetFactoryMethodName(name string) *BeanDefinition {
	t.factoryMethodName = name
	return t
}

func (t *BeanDefinition) InitMethodName() string {
	return t.initMethodName
}

func (t *BeanDefinition) SetInitMethodName(name string) *BeanDefinition {
	t.initMethodName = name
	return t
}

func (t *BeanDefinition) DestroyMethodName() string {
	return t.destroyMethodName
}

func (t *BeanDefinition) SetDestroyMethodName(name string) *BeanDefinition {
	t.destroyMethodName = name
	return t
}

func (t *BeanDefinition) String() string {
	var out strings.Builder
	out.WriteString("<BeanDefinition ")
	if t.className != "" {
		out.WriteString(t.className)
	} else {
		out.WriteString(fmt.Sprintf("%s.%s()", t.factoryBeanName, t.factoryMethodName))
	}
	out.WriteString(fmt.Sprintf(" scope=%s", t.scope))
	if len(t.dependsOn) > 0 {
		out.WriteString(fmt.Sprintf(" dependsOn=%v", t.dependsOn))
	}
	if t.primary {
		out.WriteString(" primary")
	}
	if !t.autowireCandidate {
		out.WriteString(" no-autowire")
	}
	out.WriteString(">")
	return out.String()
}
