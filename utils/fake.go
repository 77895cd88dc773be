package utils

import (
	"reflect"

	"github.com/go-faker/faker/v4"
	"github.com/go-faker/faker/v4/pkg/options"
)

// FakeStruct fills a db model struct with fake data and returns both the
// struct and its field values in "db"-tag order, ready for pgxmock's AddRow.
func FakeStruct[T any](opts ...options.OptionFunc) (T, []any) {
	var model T
	if err := faker.FakeData(&model, opts...); err != nil {
		panic(err)
	}
	return model, StructRow(model)
}

// FakeStructs generates count fake structs and their rows.
func FakeStructs[T any](count int, opts ...options.OptionFunc) ([]T, [][]any) {
	structs := make([]T, count)
	rows := make([][]any, count)
	for i := range structs {
		structs[i], rows[i] = FakeStruct[T](opts...)
	}
	return structs, rows
}

// StructRow extracts the "db"-tagged field values of a struct, in field
// declaration order, matching ColumnList.
func StructRow(model any) []any {
	v := reflect.ValueOf(model)
	t := v.Type()

	row := make([]any, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			row = append(row, StructRow(v.Field(i).Interface())...)
			continue
		}
		tag, ok := field.Tag.Lookup("db")
		if !ok || tag == "-" {
			continue
		}
		row = append(row, v.Field(i).Interface())
	}
	return row
}
