package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeParams decodes a rule's evaluated params into an action's typed
// input struct. target must be a pointer to a struct whose fields carry
// `param:"name"` tags; append `,optional` for params that may be omitted.
// Params that match no field are rejected, which catches typos in workfiles.
func DecodeParams(params map[string]cty.Value, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to struct, got %T", target)
	}
	elem := v.Elem()
	typ := elem.Type()

	consumed := make(map[string]bool, len(params))
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("param")
		if tag == "" || tag == "-" {
			continue
		}
		name, opt, _ := strings.Cut(tag, ",")
		optional := opt == "optional"

		val, present := params[name]
		if !present {
			if optional {
				continue
			}
			return fmt.Errorf("missing required param %q", name)
		}
		consumed[name] = true

		wantType, err := gocty.ImpliedType(elem.Field(i).Interface())
		if err != nil {
			return fmt.Errorf("param %q: unsupported field type %s: %w", name, field.Type, err)
		}
		converted, err := convert.Convert(val, wantType)
		if err != nil {
			return fmt.Errorf("param %q: %w", name, err)
		}
		if converted.IsNull() {
			if optional {
				continue
			}
			return fmt.Errorf("param %q must not be null", name)
		}
		if err := gocty.FromCtyValue(converted, elem.Field(i).Addr().Interface()); err != nil {
			return fmt.Errorf("param %q: %w", name, err)
		}
	}

	for name := range params {
		if !consumed[name] {
			return fmt.Errorf("unsupported param %q", name)
		}
	}
	return nil
}
