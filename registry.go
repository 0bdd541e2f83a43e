/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

/**
Name-keyed store of bean definitions that preserves registration order.

Not synchronized, callers have to serialize registration.
*/
type DefinitionRegistry struct {
	definitions map[string]*BeanDefinition
	names       []string
}

func NewRegistry() *DefinitionRegistry {
	return &DefinitionRegistry{
		definitions: make(map[string]*BeanDefinition),
	}
}

func (t *DefinitionRegistry) Register(name string, def *BeanDefinition) error {
	if name == "" {
		return newError(ErrFactory, name, "empty bean name for definition %v", def)
	}
	if def == nil {
		return newError(ErrFactory, name, "nil definition for bean '%s'", name)
	}
	if _, ok := t.definitions[name]; ok {
		return newError(ErrDuplicateName, name, "bean definition with name '%s' is already registered", name)
	}
	t.definitions[name] = def
	t.names = append(t.names, name)
	return nil
}

func (t *DefinitionRegistry) Remove(name string) error {
	if _, ok := t.definitions[name]; !ok {
		return newError(ErrNotFound, name, "no bean definition found for name '%s'", name)
	}
	delete(t.definitions, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i], t.names[i+1:]...)
			break
		}
	}
	return nil
}

func (t *DefinitionRegistry) Get(name string) (*BeanDefinition, error) {
	if def, ok := t.definitions[name]; ok {
		return def, nil
	}
	return nil, newError(ErrNotFound, name, "no bean definition found for name '%s'", name)
}

func (t *DefinitionRegistry) Contains(name string) bool {
	_, ok := t.definitions[name]
	return ok
}

// insertion order
func (t *DefinitionRegistry) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *DefinitionRegistry) Count() int {
	return len(t.definitions)
}
