/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"fmt"
	"github.com/pkg/errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	durationClass   = reflect.TypeOf(time.Millisecond)
	timeClass       = reflect.TypeOf(time.Time{})
	osFileModeClass = reflect.TypeOf(os.FileMode(0777))
	fsFileModeClass = reflect.TypeOf(fs.FileMode(0777))
)

/**
Member of the struct that receives injected value.
*/
type Member interface {

	/**
	Name of the field or method
	*/
	Name() string

	/**
	Type of the value accepted by member
	*/
	Type() reflect.Type

	/**
	Sets value in to the member of the bean, bean is the pointer value
	*/
	Set(bean reflect.Value, value reflect.Value) error
}

type FieldMember struct {
	Index int
	Field reflect.StructField
}

func (t FieldMember) Name() string {
	return t.Field.Name
}

func (t FieldMember) Type() reflect.Type {
	return t.Field.Type
}

func (t FieldMember) Set(bean reflect.Value, value reflect.Value) error {
	field := bean.Elem().Field(t.Index)
	if !field.CanSet() {
		return errors.Errorf("field '%s' in class '%v' is not public", t.Field.Name, bean.Type())
	}
	field.Set(value)
	return nil
}

/**
Setter method with exactly one parameter.
*/
type MethodMember struct {
	Method reflect.Method
}

func (t MethodMember) Name() string {
	return t.Method.Name
}

func (t MethodMember) Type() reflect.Type {
	return t.Method.Type.In(1)
}

func (t MethodMember) Set(bean reflect.Value, value reflect.Value) error {
	results := bean.Method(t.Method.Index).Call([]reflect.Value{value})
	for _, r := range results {
		if r.Type() == errorClass && !r.IsNil() {
			return errors.WithMessagef(r.Interface().(error), "method '%s' in class '%v'", t.Method.Name, bean.Type())
		}
	}
	return nil
}

/**
Injection is the single planned assignment.
Bean injection has the descriptor, property injection has the property key.
*/
type Injection struct {
	Member     Member
	Descriptor *DependencyDescriptor
	Optional   bool

	Property string
	Default  string
	Layout   string
}

func (t *Injection) IsProperty() bool {
	return t.Property != ""
}

func (t *Injection) String() string {
	if t.IsProperty() {
		return fmt.Sprintf("%s<-${%s}", t.Member.Name(), t.Property)
	}
	if t.Optional {
		return fmt.Sprintf("%s<-%v,optional", t.Member.Name(), t.Descriptor)
	}
	return fmt.Sprintf("%s<-%v", t.Member.Name(), t.Descriptor)
}

/**
Builds the injection plan of the bean type.
*/
type InjectionPlanResolver interface {
	Plan(typ reflect.Type) ([]*Injection, error)
}

/**
Bean type lists setter methods to be autowired, each one takes single bean.

Example:
	func (t *service) AutowiredMethods() []string { return []string{"SetRepository"} }
*/
type AutowiredMethods interface {
	AutowiredMethods() []string
}

var AutowiredMethodsClass = reflect.TypeOf((*AutowiredMethods)(nil)).Elem()

/**
Plan resolver based on struct tags.

	Repo    Repository           `inject`
	Cache   Cache                `inject:"bean=localCache,optional"`
	All     []Handler            `inject`
	Port    int                  `value:"server.port,default=8080"`
	Start   time.Time            `value:"start.time,layout=2006-01-02"`

Plans are cached per type.
*/
type TagPlanResolver struct {
	sync.Mutex
	cache map[reflect.Type][]*Injection
}

func NewTagPlanResolver() *TagPlanResolver {
	return &TagPlanResolver{cache: make(map[reflect.Type][]*Injection)}
}

func (t *TagPlanResolver) Plan(classPtr reflect.Type) ([]*Injection, error) {
	t.Lock()
	defer t.Unlock()
	if plan, ok := t.cache[classPtr]; ok {
		return plan, nil
	}
	plan, err := investigate(classPtr)
	if err != nil {
		return nil, err
	}
	t.cache[classPtr] = plan
	return plan, nil
}

func investigate(classPtr reflect.Type) ([]*Injection, error) {

	if classPtr.Kind() != reflect.Ptr || classPtr.Elem().Kind() != reflect.Struct {
		return nil, nil
	}

	var plan []*Injection
	class := classPtr.Elem()
	for j := 0; j < class.NumField(); j++ {
		field := class.Field(j)

		if valueTag, hasValueTag := field.Tag.Lookup("value"); hasValueTag {
			if field.Anonymous {
				return nil, errors.Errorf("injection to anonymous field '%s' in '%v' is not allowed", field.Name, classPtr)
			}
			inj := &Injection{Member: FieldMember{Index: j, Field: field}}
			pairs := strings.Split(valueTag, ",")
			for i, pair := range pairs {
				p := strings.TrimSpace(pair)
				if i == 0 {
					inj.Property = p
					continue
				}
				kv := strings.SplitN(p, "=", 2)
				if len(kv) < 2 {
					continue
				}
				switch strings.TrimSpace(kv[0]) {
				case "default":
					inj.Default = strings.TrimSpace(kv[1])
				case "layout":
					inj.Layout = strings.TrimSpace(kv[1])
				}
			}
			if inj.Property == "" {
				return nil, errors.Errorf("empty property name in field '%s' with type '%v' on position %d in %v with 'value' tag", field.Name, field.Type, j, classPtr)
			}
			plan = append(plan, inj)
			continue
		}

		injectTag, hasInjectTag := field.Tag.Lookup("inject")
		if field.Tag != "inject" && !hasInjectTag {
			continue
		}
		if field.Anonymous {
			return nil, errors.Errorf("injection to anonymous field '%s' in '%v' is not allowed", field.Name, classPtr)
		}

		var qualifier string
		var optional bool
		for _, pair := range strings.Split(injectTag, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			switch strings.TrimSpace(kv[0]) {
			case "bean":
				if len(kv) > 1 {
					qualifier = strings.TrimSpace(kv[1])
				}
			case "optional":
				optional = true
			}
		}

		desc := NewDependencyDescriptor(qualifier, field.Type)
		if !desc.IsCollection() && !isBeanType(field.Type) {
			return nil, errors.Errorf("not a pointer, interface or collection field type '%v' on position %d in %v with 'inject' tag", field.Type, j, classPtr)
		}
		plan = append(plan, &Injection{
			Member:     FieldMember{Index: j, Field: field},
			Descriptor: desc,
			Optional:   optional,
		})
	}

	if classPtr.Implements(AutowiredMethodsClass) {
		obj := reflect.New(class).Interface().(AutowiredMethods)
		for _, name := range obj.AutowiredMethods() {
			m, ok := classPtr.MethodByName(name)
			if !ok {
				return nil, errors.Errorf("autowired method '%s' not found in %v", name, classPtr)
			}
			// receiver is the first input
			if m.Type.NumIn() != 2 {
				return nil, errors.Errorf("autowired method '%s' in %v must have exactly one parameter", name, classPtr)
			}
			plan = append(plan, &Injection{
				Member:     MethodMember{Method: m},
				Descriptor: NewDependencyDescriptor("", m.Type.In(1)),
			})
		}
	}

	return plan, nil
}

/**
Before-initialization post processor that injects beans and properties in to the planned members.
*/
type InjectionPostProcessor struct {
	factory    BeanFactory
	plans      InjectionPlanResolver
	properties Properties
}

/**
Properties could be nil, then only default values are injected in 'value' fields.
*/
func NewInjectionPostProcessor(properties Properties) *InjectionPostProcessor {
	return &InjectionPostProcessor{
		plans:      NewTagPlanResolver(),
		properties: properties,
	}
}

func (t *InjectionPostProcessor) WithPlanResolver(plans InjectionPlanResolver) *InjectionPostProcessor {
	t.plans = plans
	return t
}

func (t *InjectionPostProcessor) SetBeanFactory(factory BeanFactory) {
	t.factory = factory
}

func (t *InjectionPostProcessor) PostProcessBeforeInitialization(bean interface{}, name string) (interface{}, error) {

	plan, err := t.plans.Plan(reflect.TypeOf(bean))
	if err != nil {
		return nil, err
	}

	value := reflect.ValueOf(bean)
	for _, inj := range plan {

		if inj.IsProperty() {
			if err := t.injectProperty(value, inj); err != nil {
				return nil, errors.WithMessagef(err, "property '%s' injection in bean '%s' failed", inj.Property, name)
			}
			continue
		}

		if t.factory == nil {
			return nil, errors.Errorf("bean factory is not set, can not inject '%v' in to bean '%s'", inj, name)
		}

		dep, err := t.factory.ResolveDependencyFor(name, inj.Descriptor)
		if err != nil {
			if inj.Optional && (errors.Is(err, ErrMissingBean) || errors.Is(err, ErrBeanNotFound)) {
				tracef("Skip optional inject '%v' in to bean '%s'\n", inj, name)
				continue
			}
			return nil, errors.WithMessagef(err, "inject '%v' in to bean '%s'", inj, name)
		}

		tracef("Inject '%v' in to bean '%s'\n", inj, name)
		if err := inj.Member.Set(value, reflect.ValueOf(dep)); err != nil {
			return nil, err
		}
	}

	return bean, nil
}

func (t *InjectionPostProcessor) PostProcessAfterInitialization(bean interface{}, name string) (interface{}, error) {
	return bean, nil
}

func (t *InjectionPostProcessor) injectProperty(bean reflect.Value, inj *Injection) error {

	strValue := inj.Default
	if t.properties != nil {
		strValue = t.properties.GetString(inj.Property, inj.Default)
	}

	v, err := convertProperty(strValue, inj.Member.Type(), inj.Layout)
	if err != nil {
		return errors.Errorf("field '%s' has convert error, %v", inj.Member.Name(), err)
	}

	return inj.Member.Set(bean, v)
}

func convertProperty(s string, t reflect.Type, layout string) (val reflect.Value, err error) {
	var v interface{}

	switch {

	case isArray(t):
		parts := trimSplit(s, ";")
		slice := reflect.MakeSlice(t, 0, len(parts))
		for _, s := range parts {
			val, err := convertProperty(s, t.Elem(), layout)
			if err != nil {
				return slice, err
			}
			slice = reflect.Append(slice, val)
		}
		return slice, err

	case t == durationClass:
		v, err = time.ParseDuration(s)

	case t == timeClass:
		if layout == "" {
			layout = time.RFC3339
		}
		v, err = time.Parse(layout, s)

	case t == osFileModeClass || t == fsFileModeClass:
		v, err = parseFileMode(s), nil

	case t.Kind() == reflect.Bool:
		v, err = parseBool(s)

	case t.Kind() == reflect.String:
		v, err = s, nil

	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		v, err = strconv.ParseFloat(s, 64)

	case isInt(t):
		v, err = strconv.ParseInt(s, 10, 64)

	case isUint(t):
		v, err = strconv.ParseUint(s, 10, 64)

	default:
		return reflect.Zero(t), errors.Errorf("unsupported type %s", t)
	}

	if err != nil {
		return reflect.Zero(t), err
	}

	return reflect.ValueOf(v).Convert(t), nil
}

func isInt(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isArray(t reflect.Type) bool {
	return t.Kind() == reflect.Slice
}

func trimSplit(s string, sep string) []string {
	var a []string
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			a = append(a, v)
		}
	}
	return a
}
