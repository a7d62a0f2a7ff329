// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"reflect"
	"testing"
)

func TestPrimitiveTypeName(t *testing.T) {
	if PrimitiveTypeName('I') != "int" {
		t.Error("I should name int")
	}
	if PrimitiveTypeName('Z') != "boolean" {
		t.Error("Z should name boolean")
	}
	if PrimitiveTypeName('X') != "" {
		t.Error("unrecognized type char should return empty string")
	}
}

func TestExtractParamDescriptors(t *testing.T) {
	got := ExtractParamDescriptors("ILjava/lang/String;[B")
	want := []string{"I", "Ljava/lang/String;", "[B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractParamDescriptors = %v, want %v", got, want)
	}
}

func TestExtractMethodDescriptor(t *testing.T) {
	class, name, ret, params := ExtractMethodDescriptor("Lcom/example/Foo;->bar(ILjava/lang/String;)V")
	if class != "Lcom/example/Foo;" {
		t.Errorf("class = %q", class)
	}
	if name != "bar" {
		t.Errorf("name = %q", name)
	}
	if ret != "V" {
		t.Errorf("return descriptor = %q", ret)
	}
	wantParams := []string{"I", "Ljava/lang/String;"}
	if !reflect.DeepEqual(params, wantParams) {
		t.Errorf("params = %v, want %v", params, wantParams)
	}
}

func TestDeclToDescriptor(t *testing.T) {
	tests := []struct {
		decl string
		want string
	}{
		{"java.lang.String", "Ljava/lang/String;"},
		{"int", "I"},
		{"int[]", "[I"},
		{"boolean", "Z"},
	}
	for _, tt := range tests {
		if got := DeclToDescriptor(tt.decl); got != tt.want {
			t.Errorf("DeclToDescriptor(%q) = %q, want %q", tt.decl, got, tt.want)
		}
	}
}

func TestShortyDescriptorMatch(t *testing.T) {
	shorty := DescriptorToMatchShorty("V", []string{"I", "Ljava/lang/String;"})
	if shorty != "VIL" {
		t.Errorf("DescriptorToMatchShorty = %q, want %q", shorty, "VIL")
	}
	if !ShortyDescriptorMatch("V*L", shorty) {
		t.Error("expected wildcard shorty to match")
	}
	if ShortyDescriptorMatch("VIZ", shorty) {
		t.Error("expected mismatched shorty to fail")
	}
	if ShortyDescriptorMatch("VI", shorty) {
		t.Error("expected length mismatch to fail")
	}
}
