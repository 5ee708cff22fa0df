// Package unpack unmarshals JSON documents whose objects carry a "kind"
// discriminator into trees of Go structs that implement arbitrary
// interfaces.  A Reflector maps each kind string to a registered struct
// type; interface-typed fields anywhere in the tree are resolved by
// looking up the embedded object's kind.
package unpack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Reflector maps a kind tag to the struct type it decodes into.
type Reflector map[string]reflect.Type

// New creates a Reflector from the given templates.  Each template is a
// struct value whose type name becomes its kind tag.  The struct must
// have a Kind field of type string tagged `unpack:""` (or a tag naming
// an alternative kind string).
func New(templates ...any) Reflector {
	r := make(Reflector)
	for _, t := range templates {
		r.Add(t)
	}
	return r
}

// Add registers a template and returns the Reflector so calls can chain.
func (r Reflector) Add(template any) Reflector {
	typ := reflect.TypeOf(template)
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("unpack: template %T is not a struct", template))
	}
	kind := typ.Name()
	if tag, ok := kindTag(typ); ok && tag != "" {
		kind = tag
	} else if !ok {
		panic(fmt.Sprintf("unpack: template %s has no unpack tag", typ.Name()))
	}
	if _, ok := r[kind]; ok {
		panic(fmt.Sprintf("unpack: duplicate template %q", kind))
	}
	r[kind] = typ
	return r
}

// kindTag returns the value of the unpack tag on the struct's Kind
// field and whether such a field exists.
func kindTag(typ reflect.Type) (string, bool) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if tag, ok := f.Tag.Lookup("unpack"); ok {
			return tag, true
		}
	}
	return "", false
}

// Unmarshal decodes buf into result, which must be a non-nil pointer,
// typically a pointer to an interface type satisfied by the registered
// structs.
func (r Reflector) Unmarshal(buf []byte, result any) error {
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	dst := reflect.ValueOf(result)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("unpack: result must be a non-nil pointer, got %T", result)
	}
	return r.decode(raw, dst.Elem())
}

func (r Reflector) decode(src any, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Interface:
		if src == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		obj, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into interface %s", src, dst.Type())
		}
		kind, ok := obj["kind"].(string)
		if !ok {
			return fmt.Errorf("unpack: JSON object has no kind field (want %s)", dst.Type())
		}
		typ, ok := r[kind]
		if !ok {
			return fmt.Errorf("unpack: unknown kind %q", kind)
		}
		p := reflect.New(typ)
		if err := r.decodeStruct(obj, p.Elem()); err != nil {
			return err
		}
		if !p.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("unpack: kind %q does not implement %s", kind, dst.Type())
		}
		dst.Set(p)
		return nil
	case reflect.Pointer:
		if src == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		p := reflect.New(dst.Type().Elem())
		if err := r.decode(src, p.Elem()); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Struct:
		obj, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into struct %s", src, dst.Type())
		}
		return r.decodeStruct(obj, dst)
	case reflect.Slice:
		if src == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		elems, ok := src.([]any)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into %s", src, dst.Type())
		}
		slice := reflect.MakeSlice(dst.Type(), len(elems), len(elems))
		for i, elem := range elems {
			if err := r.decode(elem, slice.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(slice)
		return nil
	case reflect.Map:
		if src == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		obj, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into %s", src, dst.Type())
		}
		m := reflect.MakeMapWithSize(dst.Type(), len(obj))
		for key, val := range obj {
			v := reflect.New(dst.Type().Elem()).Elem()
			if err := r.decode(val, v); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(key), v)
		}
		dst.Set(m)
		return nil
	case reflect.String:
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into string", src)
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := src.(bool)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into bool", src)
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := src.(json.Number)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into %s", src, dst.Type())
		}
		i, err := n.Int64()
		if err != nil {
			return err
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := src.(json.Number)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into %s", src, dst.Type())
		}
		i, err := n.Int64()
		if err != nil {
			return err
		}
		dst.SetUint(uint64(i))
		return nil
	case reflect.Float32, reflect.Float64:
		n, ok := src.(json.Number)
		if !ok {
			return fmt.Errorf("unpack: cannot decode %T into %s", src, dst.Type())
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	}
	return fmt.Errorf("unpack: unsupported target type %s", dst.Type())
}

func (r Reflector) decodeStruct(obj map[string]any, dst reflect.Value) error {
	typ := dst.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "-" {
			continue
		}
		val, ok := obj[name]
		if !ok {
			continue
		}
		if err := r.decode(val, dst.Field(i)); err != nil {
			return fmt.Errorf("field %q of %s: %w", name, typ.Name(), err)
		}
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}
