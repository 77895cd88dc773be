package utils

import (
	"fmt"
	"reflect"
)

// ColumnList returns the list of "db"-tagged column names of a db model
// struct, in field declaration order. Embedded structs are flattened.
func ColumnList[T any]() []string {
	var model T
	return columnsOfType(reflect.TypeOf(model))
}

func columnsOfType(t reflect.Type) []string {
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("ColumnList: %s is not a struct", t))
	}

	columns := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			columns = append(columns, columnsOfType(field.Type)...)
			continue
		}
		tag, ok := field.Tag.Lookup("db")
		if !ok || tag == "-" {
			continue
		}
		columns = append(columns, tag)
	}
	return columns
}
