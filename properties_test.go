/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter_test

import (
	"github.com/codeallergy/winter"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

var propertiesContent = `
# server settings
server.host = localhost
server.port: 8080
! old style comment
server.name   winter app
server.description = first line \
    second line
path\ with\ spaces = yes
escaped = tab\there
unicode = \u0041BC
empty =
`

func TestParseProperties(t *testing.T) {

	p := winter.NewProperties()
	require.NoError(t, p.Parse(propertiesContent))

	require.Equal(t, 8, p.Len())
	require.Equal(t, "localhost", p.GetString("server.host", ""))
	require.Equal(t, 8080, p.GetInt("server.port", 0))
	require.Equal(t, "winter app", p.GetString("server.name", ""))
	require.Equal(t, "first line second line", p.GetString("server.description", ""))
	require.Equal(t, "yes", p.GetString("path with spaces", ""))
	require.Equal(t, "tab\there", p.GetString("escaped", ""))
	require.Equal(t, "ABC", p.GetString("unicode", ""))

	value, ok := p.Get("empty")
	require.True(t, ok)
	require.Equal(t, "", value)

	_, ok = p.Get("unknown")
	require.False(t, ok)
	require.Equal(t, "def", p.GetString("unknown", "def"))
}

func TestPropertiesGetters(t *testing.T) {

	p := winter.NewProperties()
	p.Set("enabled", "on")
	p.Set("timeout", "150ms")
	p.Set("broken", "x")

	require.True(t, p.GetBool("enabled", false))
	require.True(t, p.GetBool("broken", true))
	require.Equal(t, 150*time.Millisecond, p.GetDuration("timeout", time.Second))
	require.Equal(t, time.Second, p.GetDuration("broken", time.Second))
	require.Equal(t, 7, p.GetInt("broken", 7))

	require.True(t, p.Contains("enabled"))
	require.True(t, p.Remove("enabled"))
	require.False(t, p.Remove("enabled"))
	require.False(t, p.Contains("enabled"))

	keys := p.Keys()
	sort.Strings(keys)
	require.Equal(t, []string{"broken", "timeout"}, keys)
}

func TestPropertiesDump(t *testing.T) {

	p := winter.NewProperties()
	p.Set("b.key", "second")
	p.Set("a key", "line\nbreak")

	dump := p.Dump()
	require.Equal(t, "a\\ key = line\\nbreak\nb.key = second\n", dump)

	again := winter.NewProperties()
	require.NoError(t, again.Parse(dump))
	require.Equal(t, "line\nbreak", again.GetString("a key", ""))
	require.Equal(t, "second", again.GetString("b.key", ""))
}

func TestPropertiesParseError(t *testing.T) {

	p := winter.NewProperties()
	err := p.Parse("= value without key")
	require.Error(t, err)

	err = p.Parse("key = \\u00")
	require.Error(t, err)

	_, err = winter.LoadProperties(strings.NewReader("= broken"), winter.PropertiesFormat)
	require.ErrorIs(t, err, winter.ErrPropertySource)
}

var yamlContent = `
server:
  host: example.com
  port: 9090
  tags:
    - alpha
    - beta
database:
  enabled: true
  pool:
    size: 4
empty:
`

func TestLoadYaml(t *testing.T) {

	p, err := winter.LoadProperties(strings.NewReader(yamlContent), winter.YamlFormat)
	require.NoError(t, err)

	require.Equal(t, "example.com", p.GetString("server.host", ""))
	require.Equal(t, 9090, p.GetInt("server.port", 0))
	require.Equal(t, "alpha;beta", p.GetString("server.tags", ""))
	require.True(t, p.GetBool("database.enabled", false))
	require.Equal(t, 4, p.GetInt("database.pool.size", 0))
	require.True(t, p.Contains("empty"))

	_, err = winter.LoadProperties(strings.NewReader("server: [unclosed"), winter.YamlFormat)
	require.ErrorIs(t, err, winter.ErrPropertySource)

	p, err = winter.LoadProperties(strings.NewReader(""), winter.YamlFormat)
	require.NoError(t, err)
	require.Equal(t, 0, p.Len())
}

func TestLoadDotenv(t *testing.T) {

	content := "# comment\nDB_HOST=localhost\nDB_PORT=5432\nexport APP_NAME=\"winter app\"\n"
	p, err := winter.LoadProperties(strings.NewReader(content), winter.DotenvFormat)
	require.NoError(t, err)

	require.Equal(t, "localhost", p.GetString("DB_HOST", ""))
	require.Equal(t, 5432, p.GetInt("DB_PORT", 0))
	require.Equal(t, "winter app", p.GetString("APP_NAME", ""))
}

func TestReadProperties(t *testing.T) {

	dir := t.TempDir()

	files := map[string]string{
		"application.properties": "app.name = props\n",
		"application.yml":        "app:\n  name: yaml\n",
		".env":                   "APP_NAME=dotenv\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	p, err := winter.ReadProperties(filepath.Join(dir, "application.properties"))
	require.NoError(t, err)
	require.Equal(t, "props", p.GetString("app.name", ""))

	p, err = winter.ReadProperties(filepath.Join(dir, "application.yml"))
	require.NoError(t, err)
	require.Equal(t, "yaml", p.GetString("app.name", ""))

	p, err = winter.ReadProperties(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	require.Equal(t, "dotenv", p.GetString("APP_NAME", ""))

	_, err = winter.ReadProperties(filepath.Join(dir, "missing.properties"))
	require.ErrorIs(t, err, winter.ErrPropertySource)
}

func TestFormatOf(t *testing.T) {
	require.Equal(t, winter.YamlFormat, winter.FormatOf("config/app.yaml"))
	require.Equal(t, winter.YamlFormat, winter.FormatOf("APP.YML"))
	require.Equal(t, winter.DotenvFormat, winter.FormatOf("/etc/app/.env"))
	require.Equal(t, winter.DotenvFormat, winter.FormatOf(".env.local"))
	require.Equal(t, winter.DotenvFormat, winter.FormatOf("prod.env"))
	require.Equal(t, winter.PropertiesFormat, winter.FormatOf("app.properties"))
	require.Equal(t, winter.PropertiesFormat, winter.FormatOf("app.conf"))
	require.Equal(t, "yaml", winter.YamlFormat.String())
}

type priorityResolver struct {
	priority int
	values   map[string]string
}

func (t *priorityResolver) Priority() int {
	return t.priority
}

func (t *priorityResolver) GetProperty(key string) (string, bool) {
	value, ok := t.values[key]
	return value, ok
}

func TestPropertyResolvers(t *testing.T) {

	p := winter.NewProperties()
	p.Set("app.name", "local")
	p.Set("app.port", "80")

	p.Register(&priorityResolver{priority: 200, values: map[string]string{"app.name": "override"}})
	p.Register(&priorityResolver{priority: 10, values: map[string]string{"app.port": "8080", "app.mode": "fallback"}})

	require.Equal(t, 3, len(p.PropertyResolvers()))
	require.Equal(t, "override", p.GetString("app.name", ""))
	require.Equal(t, "80", p.GetString("app.port", ""))
	require.Equal(t, "fallback", p.GetString("app.mode", ""))
}

func TestEnvironmentResolver(t *testing.T) {

	t.Setenv("WINTER_TEST_PORT", "7070")

	p := winter.NewProperties()
	p.Set("winter-test.port", "80")
	p.Register(winter.NewEnvironmentResolver(500))

	require.Equal(t, 7070, p.GetInt("winter-test.port", 0))
	require.Equal(t, 7070, p.GetInt("winter.test.port", 0))
}
