/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"strconv"
)

/**
Scan registers classes and singleton definitions for the scanned items.

Supported items:
	func(args...) *T       constructor function
	*Constructor           constructor with parameter names
	*Class                 class with all its constructors
	reflect.Type           class with implicit constructor, pointer to struct
	Scanner                returns more items
	[]interface{}          list of items
	*T                     pre-built instance, registered as is

Bean name is the simple type name with lower-cased first letter.
*/
func (t *Factory) Scan(scan ...interface{}) error {
	return forEach("", scan, func(pos string, item interface{}) error {

		switch obj := item.(type) {
		case *Class:
			return t.scanClass(obj)
		case *Constructor:
			class, err := ClassOf(obj)
			if err != nil {
				return err
			}
			return t.scanClass(class)
		case reflect.Type:
			class, err := ClassFor(obj)
			if err != nil {
				return err
			}
			return t.scanClass(class)
		}

		value := reflect.ValueOf(item)
		switch value.Kind() {
		case reflect.Func:
			class, err := ClassOf(Ctor(item))
			if err != nil {
				return err
			}
			return t.scanClass(class)
		case reflect.Ptr:
			name := DefaultBeanName(value.Type())
			tracef("Scan instance '%s' with type '%T' on position %s\n", name, item, pos)
			return t.RegisterInstance(name, nil, item)
		default:
			return errors.Errorf("unsupported item type '%T' on position '%s'", item, pos)
		}
	})
}

func (t *Factory) scanClass(class *Class) error {
	if err := t.RegisterClass(class); err != nil {
		return err
	}
	name := DefaultBeanName(class.Type())
	return t.RegisterDefinition(name, NewDefinition(class.Name()))
}

func forEach(initialPos string, scan []interface{}, cb func(pos string, obj interface{}) error) error {
	for j, item := range scan {
		var pos string
		if len(initialPos) > 0 {
			pos = fmt.Sprintf("%s.%d", initialPos, j)
		} else {
			pos = strconv.Itoa(j)
		}
		if item == nil {
			continue
		}
		switch obj := item.(type) {
		case Scanner:
			if err := forEach(pos, obj.Beans(), cb); err != nil {
				return err
			}
		case []interface{}:
			if err := forEach(pos, obj, cb); err != nil {
				return err
			}
		default:
			if err := cb(pos, obj); err != nil {
				return errors.WithMessagef(err, "scan item '%T' on position '%s'", item, pos)
			}
		}
	}
	return nil
}
