package codec

import (
	"math"
	"reflect"
	"testing"
)

func TestFromGo(t *testing.T) {
	type point struct {
		X int    `json:"x"`
		Y int    `json:"y"`
		L string `json:"label,omitempty"`
	}

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"small int", 12, Int32(12)},
		{"wide int", int64(1) << 40, Int64(1 << 40)},
		{"uint32 above int32", uint32(math.MaxUint32), Int64(math.MaxUint32)},
		{"float32", float32(0.5), Float64(0.5)},
		{"string", "s", String("s")},
		{"bytes", []byte{1}, ByteList{1}},
		{"strings", []string{"a", "b"}, List{String("a"), String("b")}},
		{"any slice", []any{1, "x", nil}, List{Int32(1), String("x"), Null{}}},
		{"map sorted by key", map[string]any{"b": 2, "a": 1}, Map{
			{Key: String("a"), Value: Int32(1)},
			{Key: String("b"), Value: Int32(2)},
		}},
		{"struct via json", point{X: 1, Y: 2}, Map{
			{Key: String("x"), Value: Int32(1)},
			{Key: String("y"), Value: Int32(2)},
		}},
		{"value passes through", Int64List{3}, Int64List{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.in)
			if err != nil {
				t.Fatalf("FromGo(%#v) error: %v", tt.in, err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("FromGo(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := FromGo(uint64(math.MaxUint64)); err == nil {
		t.Error("FromGo(MaxUint64) should overflow")
	}
	if _, err := FromGo(make(chan int)); err == nil {
		t.Error("FromGo(chan) should fail")
	}
}

func TestToGo(t *testing.T) {
	v := Map{
		{Key: String("n"), Value: Int32(3)},
		{Key: String("list"), Value: List{Bool(true), Null{}}},
	}
	want := map[string]any{
		"n":    int64(3),
		"list": []any{true, nil},
	}
	if got := ToGo(v); !reflect.DeepEqual(got, want) {
		t.Errorf("ToGo = %#v, want %#v", got, want)
	}

	mixed := ToGo(Map{{Key: Int32(1), Value: String("one")}})
	m, ok := mixed.(map[any]any)
	if !ok || m[int64(1)] != "one" {
		t.Errorf("ToGo(mixed keys) = %#v", mixed)
	}
}

func TestUnmarshal(t *testing.T) {
	var out struct {
		Text      string `json:"text"`
		Selection int    `json:"selectionBase"`
	}
	v := Map{
		{Key: String("text"), Value: String("hello")},
		{Key: String("selectionBase"), Value: Int64(4)},
	}
	if err := Unmarshal(v, &out); err != nil {
		t.Fatal(err)
	}
	if out.Text != "hello" || out.Selection != 4 {
		t.Errorf("Unmarshal = %+v", out)
	}

	if err := Unmarshal(String("x"), &out); err == nil {
		t.Error("Unmarshal of string into struct should fail")
	}
}
