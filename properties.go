/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"bufio"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

/**
Property resolver is the additional source of properties, sorted by priority, the higher priority looked first.
*/
type PropertyResolver interface {

	/**
	Priority in property resolving, it could be lower or higher than default one.
	*/
	Priority() int

	/**
	Resolves the property
	*/
	GetProperty(key string) (value string, ok bool)
}

const defaultPropertyResolverPriority = 100

/**
Properties are the source of values for 'value' fields of beans.
Internal property storage has default priority of property resolver.
*/
type Properties interface {
	PropertyResolver

	/**
	Register additional property resolver. It would be sorted by priority.
	*/
	Register(PropertyResolver)
	PropertyResolvers() []PropertyResolver

	/**
	Loads nested map, keys are joined by dots
	*/
	LoadMap(source map[string]interface{})

	/**
	Parses content in the format of properties file
	*/
	Parse(content string) error

	/**
	Dumps all properties in the format of properties file, keys are sorted
	*/
	Dump() string

	Len() int
	Keys() []string
	Contains(key string) bool

	/**
	Gets property value through all resolvers and true if exist
	*/
	Get(key string) (value string, ok bool)

	GetString(key, def string) string
	GetBool(key string, def bool) bool
	GetInt(key string, def int) int
	GetDuration(key string, def time.Duration) time.Duration

	Set(key string, value string)
	Remove(key string) bool
}

/**
Format of the property source
*/
type PropertyFormat int

const (
	PropertiesFormat PropertyFormat = iota
	YamlFormat
	DotenvFormat
)

func (t PropertyFormat) String() string {
	switch t {
	case YamlFormat:
		return "yaml"
	case DotenvFormat:
		return "dotenv"
	default:
		return "properties"
	}
}

/**
Detects format by file name, unknown extensions are read as properties.
*/
func FormatOf(fileName string) PropertyFormat {
	base := strings.ToLower(filepath.Base(fileName))
	switch {
	case strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml"):
		return YamlFormat
	case base == ".env" || strings.HasPrefix(base, ".env.") || strings.HasSuffix(base, ".env"):
		return DotenvFormat
	default:
		return PropertiesFormat
	}
}

type properties struct {
	sync.RWMutex

	priority  int
	store     map[string]string
	resolvers []PropertyResolver
}

func NewProperties() Properties {
	t := &properties{
		priority:  defaultPropertyResolverPriority,
		store:     make(map[string]string),
		resolvers: make([]PropertyResolver, 0, 4),
	}
	t.Register(t)
	return t
}

/**
Reads properties file, the format is detected by the file name.
*/
func ReadProperties(fileName string) (Properties, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, wrapError(ErrPropertySource, err, "", "open property source '%s'", fileName)
	}
	defer file.Close()
	p, err := LoadProperties(file, FormatOf(fileName))
	if err != nil {
		return nil, errors.WithMessagef(err, "property source '%s'", fileName)
	}
	return p, nil
}

func LoadProperties(reader io.Reader, format PropertyFormat) (Properties, error) {
	p := NewProperties()
	if err := loadInto(p, reader, format); err != nil {
		return nil, err
	}
	return p, nil
}

func loadInto(p Properties, reader io.Reader, format PropertyFormat) error {
	switch format {

	case YamlFormat:
		holder := make(map[string]interface{})
		if err := yaml.NewDecoder(reader).Decode(&holder); err != nil && err != io.EOF {
			return wrapError(ErrPropertySource, err, "", "invalid %s content", format)
		}
		p.LoadMap(holder)

	case DotenvFormat:
		env, err := godotenv.Parse(reader)
		if err != nil {
			return wrapError(ErrPropertySource, err, "", "invalid %s content", format)
		}
		for k, v := range env {
			p.Set(k, v)
		}

	default:
		content, err := io.ReadAll(reader)
		if err != nil {
			return wrapError(ErrPropertySource, err, "", "read %s content", format)
		}
		if err := p.Parse(string(content)); err != nil {
			return wrapError(ErrPropertySource, err, "", "invalid %s content", format)
		}
	}
	return nil
}

func (t *properties) String() string {
	t.RLock()
	defer t.RUnlock()
	return fmt.Sprintf("Properties{priority=%d,store=%d,resolvers=%d}", t.priority, len(t.store), len(t.resolvers))
}

func (t *properties) Register(resolver PropertyResolver) {
	t.Lock()
	defer t.Unlock()
	t.resolvers = append(t.resolvers, resolver)
	if len(t.resolvers) > 1 {
		sort.SliceStable(t.resolvers, func(i, j int) bool {
			return t.resolvers[i].Priority() > t.resolvers[j].Priority()
		})
	}
}

func (t *properties) PropertyResolvers() []PropertyResolver {
	t.RLock()
	defer t.RUnlock()
	buf := make([]PropertyResolver, len(t.resolvers))
	copy(buf, t.resolvers)
	return buf
}

func (t *properties) Priority() int {
	return t.priority
}

func (t *properties) LoadMap(source map[string]interface{}) {
	t.Lock()
	defer t.Unlock()
	t.loadMapRec(make([]byte, 0, 100), source)
}

func (t *properties) loadMapRec(stack []byte, m map[string]interface{}) {
	for k, v := range m {
		n := len(stack)
		if n > 0 {
			stack = append(stack, '.')
		}
		stack = append(stack, k...)
		switch next := v.(type) {
		case map[string]interface{}:
			t.loadMapRec(stack, next)
		case []interface{}:
			// lists are kept in the form accepted by slice fields
			parts := make([]string, len(next))
			for i, item := range next {
				parts[i] = fmt.Sprint(item)
			}
			t.store[string(stack)] = strings.Join(parts, ";")
		case nil:
			t.store[string(stack)] = ""
		default:
			t.store[string(stack)] = fmt.Sprint(v)
		}
		stack = stack[:n]
	}
}

/**
Line based parser of properties content.

Lines starting with '#' or '!' are comments, key is separated from value by '=', ':' or white space,
trailing backslash continues the value on the next line.
*/
func (t *properties) Parse(content string) error {

	t.Lock()
	defer t.Unlock()

	scanner := bufio.NewScanner(strings.NewReader(content))
	var logical strings.Builder
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimLeft(scanner.Text(), " \t\f")

		if logical.Len() == 0 && (line == "" || line[0] == '#' || line[0] == '!') {
			continue
		}

		if continued(line) {
			logical.WriteString(line[:len(line)-1])
			continue
		}
		logical.WriteString(line)

		key, value, err := splitProperty(logical.String())
		if err != nil {
			return errors.Errorf("line %d: %v", lineNum, err)
		}
		t.store[key] = value
		logical.Reset()
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	if logical.Len() > 0 {
		key, value, err := splitProperty(logical.String())
		if err != nil {
			return errors.Errorf("line %d: %v", lineNum, err)
		}
		t.store[key] = value
	}
	return nil
}

// odd number of trailing backslashes
func continued(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func splitProperty(line string) (string, string, error) {
	var key strings.Builder
	i := 0
	for i < len(line) {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			key.WriteByte(line[i])
			key.WriteByte(line[i+1])
			i += 2
			continue
		}
		if c == '=' || c == ':' || c == ' ' || c == '\t' || c == '\f' {
			break
		}
		key.WriteByte(c)
		i++
	}

	rest := strings.TrimLeft(line[i:], " \t\f")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = strings.TrimLeft(rest[1:], " \t\f")
	}

	k, err := unescape(key.String())
	if err != nil {
		return "", "", err
	}
	if k == "" {
		return "", "", errors.Errorf("empty key in '%s'", line)
	}
	v, err := unescape(rest)
	if err != nil {
		return "", "", errors.Errorf("key '%s': %v", k, err)
	}
	return k, v, nil
}

func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			out.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case 'f':
			out.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", errors.Errorf("invalid unicode escape in '%s'", s)
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", errors.Errorf("invalid unicode escape in '%s'", s)
			}
			out.WriteRune(rune(r))
			i += 4
		default:
			out.WriteByte(s[i])
		}
	}
	return out.String(), nil
}

func (t *properties) Dump() string {
	var output strings.Builder

	keys := t.Keys()
	sort.Strings(keys)

	t.RLock()
	defer t.RUnlock()

	for _, key := range keys {
		if value, ok := t.store[key]; ok {
			output.WriteString(fmt.Sprintf("%s = %s\n", encodeUtf8(key, " :="), encodeUtf8(value, "")))
		}
	}

	return output.String()
}

func (t *properties) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.store)
}

func (t *properties) Keys() []string {
	t.RLock()
	defer t.RUnlock()
	keys := make([]string, 0, len(t.store))
	for k := range t.store {
		keys = append(keys, k)
	}
	return keys
}

func (t *properties) Contains(key string) bool {
	t.RLock()
	defer t.RUnlock()
	_, ok := t.store[key]
	return ok
}

func (t *properties) GetProperty(key string) (value string, ok bool) {
	t.RLock()
	defer t.RUnlock()
	value, ok = t.store[key]
	return
}

func (t *properties) Get(key string) (string, bool) {
	for _, r := range t.PropertyResolvers() {
		if value, ok := r.GetProperty(key); ok {
			return value, true
		}
	}
	return "", false
}

func (t *properties) GetString(key, def string) string {
	if value, ok := t.Get(key); ok {
		return value
	}
	return def
}

func (t *properties) GetBool(key string, def bool) bool {
	if value, ok := t.Get(key); ok {
		if v, err := parseBool(value); err == nil {
			return v
		}
	}
	return def
}

func (t *properties) GetInt(key string, def int) int {
	if value, ok := t.Get(key); ok {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return def
}

func (t *properties) GetDuration(key string, def time.Duration) time.Duration {
	if value, ok := t.Get(key); ok {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return def
}

func (t *properties) Set(key string, value string) {
	t.Lock()
	defer t.Unlock()
	t.store[key] = value
}

func (t *properties) Remove(key string) bool {
	t.Lock()
	defer t.Unlock()
	_, ok := t.store[key]
	if ok {
		delete(t.store, key)
	}
	return ok
}

/**
Resolves properties from environment variables, key 'server.port' is looked up as 'SERVER_PORT'.
*/
type EnvironmentResolver struct {
	priority int
}

func NewEnvironmentResolver(priority int) *EnvironmentResolver {
	return &EnvironmentResolver{priority: priority}
}

func (t *EnvironmentResolver) Priority() int {
	return t.priority
}

func (t *EnvironmentResolver) GetProperty(key string) (string, bool) {
	name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	return os.LookupEnv(name)
}

func encodeUtf8(s string, special string) string {
	var out strings.Builder
	for pos := 0; pos < len(s); {
		r, w := utf8.DecodeRuneInString(s[pos:])
		pos += w
		out.WriteString(escape(r, special))
	}
	return out.String()
}

func escape(r rune, special string) string {
	switch r {
	case '\f':
		return "\\f"
	case '\n':
		return "\\n"
	case '\r':
		return "\\r"
	case '\t':
		return "\\t"
	case '\\':
		return "\\\\"
	default:
		if strings.ContainsRune(special, r) {
			return "\\" + string(r)
		}
		return string(r)
	}
}

func parseBool(str string) (bool, error) {
	switch str {
	case "1", "t", "T", "true", "TRUE", "True", "on", "ON", "On":
		return true, nil
	case "0", "f", "F", "false", "FALSE", "False", "off", "OFF", "Off":
		return false, nil
	}
	return false, errors.Errorf("invalid syntax '%s'", str)
}

/**
Parses only os.Unix file mode with 0777 mask
*/
func parseFileMode(s string) os.FileMode {

	var m uint32

	const rwx = "rwxrwxrwx"
	off := len(s) - len(rwx)
	if off < 0 {
		buf := []byte("---------")
		copy(buf[-off:], s)
		s = string(buf)
	} else {
		s = s[off:]
	}

	for i, c := range rwx {
		if byte(c) == s[i] {
			m |= 1 << uint(9-1-i)
		}
	}

	return os.FileMode(m)
}
