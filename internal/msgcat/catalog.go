package msgcat

import (
    "embed"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "sync"
    "text/template"

    yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

var ErrNotFound = errors.New("message not found")

// Catalog holds chat texts keyed by dotted path ("suggest.premove", "signal.bq").
// Embedded defaults load first; YAML files in an override directory replace single keys.
type Catalog struct {
    mu    sync.RWMutex
    data  map[string]string
    cache map[string]*template.Template
}

func New(overrideDir string) (*Catalog, error) {
    c := &Catalog{data: make(map[string]string), cache: make(map[string]*template.Template)}
    raw, err := fs.ReadFile(defaultFiles, "messages.en.yaml")
    if err != nil {
        return nil, fmt.Errorf("read embedded messages: %w", err)
    }
    if err := c.apply(raw); err != nil {
        return nil, fmt.Errorf("parse embedded messages: %w", err)
    }
    if strings.TrimSpace(overrideDir) != "" {
        if err := c.applyDir(overrideDir); err != nil {
            return nil, err
        }
    }
    return c, nil
}

func (c *Catalog) applyDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil {
        return fmt.Errorf("read override dir: %w", err)
    }
    files := make([]string, 0, len(entries))
    for _, e := range entries {
        if e.IsDir() { continue }
        ext := strings.ToLower(filepath.Ext(e.Name()))
        if ext == ".yaml" || ext == ".yml" { files = append(files, e.Name()) }
    }
    sort.Strings(files)
    seen := make(map[string]string)
    for _, name := range files {
        b, err := os.ReadFile(filepath.Join(dir, name))
        if err != nil { return fmt.Errorf("read %s: %w", name, err) }
        flat, err := flatten(b)
        if err != nil { return fmt.Errorf("parse %s: %w", name, err) }
        for k := range flat {
            if prev, ok := seen[k]; ok {
                return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
            }
            seen[k] = name
        }
        c.merge(flat)
    }
    return nil
}

func (c *Catalog) apply(b []byte) error {
    flat, err := flatten(b)
    if err != nil { return err }
    c.merge(flat)
    return nil
}

func (c *Catalog) merge(flat map[string]string) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for k, v := range flat {
        c.data[k] = v
        delete(c.cache, k)
    }
}

func flatten(b []byte) (map[string]string, error) {
    var m map[string]any
    if err := yaml.Unmarshal(b, &m); err != nil {
        return nil, err
    }
    out := make(map[string]string)
    if err := walk(m, "", out); err != nil {
        return nil, err
    }
    return out, nil
}

func walk(src any, prefix string, out map[string]string) error {
    switch v := src.(type) {
    case map[string]any:
        for k, vv := range v {
            key := k
            if prefix != "" { key = prefix + "." + k }
            if err := walk(vv, key, out); err != nil { return err }
        }
        return nil
    case string:
        if prefix == "" { return errors.New("string value without key") }
        out[prefix] = v
        return nil
    case nil:
        return nil
    default:
        // only string leaves; a bare `on`/`1` in YAML would otherwise slip through as bool/int
        return fmt.Errorf("unsupported value at %s: %T", prefix, v)
    }
}

// Keys returns the sorted keys under prefix ("signal" lists every signal).
func (c *Catalog) Keys(prefix string) []string {
    prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
    c.mu.RLock()
    defer c.mu.RUnlock()
    var out []string
    for k := range c.data {
        if prefix == "" || strings.HasPrefix(k, prefix+".") {
            out = append(out, k)
        }
    }
    sort.Strings(out)
    return out
}

// Render executes the template stored under key. Missing data fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
    key = strings.TrimSpace(key)
    t, err := c.template(key)
    if err != nil { return "", err }
    var b strings.Builder
    if err := t.Execute(&b, data); err != nil { return "", err }
    return b.String(), nil
}

func (c *Catalog) template(key string) (*template.Template, error) {
    c.mu.RLock()
    t, ok := c.cache[key]
    src, found := c.data[key]
    c.mu.RUnlock()
    if ok { return t, nil }
    if !found || strings.TrimSpace(src) == "" {
        return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
    }
    t, err := template.New(key).Option("missingkey=error").Parse(src)
    if err != nil { return nil, err }
    c.mu.Lock()
    c.cache[key] = t
    c.mu.Unlock()
    return t, nil
}
