/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

/**
Function based post processor, nil functions pass the bean through.
*/
type PostProcessorFuncs struct {
	BeforeInitialization func(bean interface{}, name string) (interface{}, error)
	AfterInitialization  func(bean interface{}, name string) (interface{}, error)
	BeforeDestruction    func(bean interface{}, name string) error
}

func (t PostProcessorFuncs) PostProcessBeforeInitialization(bean interface{}, name string) (interface{}, error) {
	if t.BeforeInitialization == nil {
		return bean, nil
	}
	return t.BeforeInitialization(bean, name)
}

func (t PostProcessorFuncs) PostProcessAfterInitialization(bean interface{}, name string) (interface{}, error) {
	if t.AfterInitialization == nil {
		return bean, nil
	}
	return t.AfterInitialization(bean, name)
}

func (t PostProcessorFuncs) PostProcessBeforeDestruction(bean interface{}, name string) error {
	if t.BeforeDestruction == nil {
		return nil
	}
	return t.BeforeDestruction(bean, name)
}

type hookFn func(p BeanPostProcessor, bean interface{}, name string) (interface{}, error)

func beforeInitialization(p BeanPostProcessor, bean interface{}, name string) (interface{}, error) {
	return p.PostProcessBeforeInitialization(bean, name)
}

func afterInitialization(p BeanPostProcessor, bean interface{}, name string) (interface{}, error) {
	return p.PostProcessAfterInitialization(bean, name)
}

/**
Pipes the bean through every processor in registration order, each one gets the previous result.
*/
func applyPostProcessors(processors []BeanPostProcessor, hook hookFn, stage string, bean interface{}, name string) (interface{}, error) {
	result := bean
	for _, p := range processors {
		current, err := hook(p, result, name)
		if err != nil {
			return nil, wrapError(ErrFactory, err, name, "post processor '%T' failed %s of bean '%s'", p, stage, name)
		}
		if isNil(current) {
			return nil, newError(ErrFactory, name, "post processor '%T' returned nil for bean '%s' %s", p, name, stage)
		}
		result = current
	}
	return result, nil
}

func applyDestruction(processors []BeanPostProcessor, bean interface{}, name string) error {
	var listErr []error
	for _, p := range processors {
		if d, ok := p.(DestructionBeanPostProcessor); ok {
			if err := d.PostProcessBeforeDestruction(bean, name); err != nil {
				listErr = append(listErr, wrapError(ErrFactory, err, name, "post processor '%T' failed before destruction of bean '%s'", p, name))
			}
		}
	}
	return multipleErr(listErr)
}
