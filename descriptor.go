// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "strings"

// PrimitiveTypeName returns the human-readable name for a primitive
// descriptor character, or "" if typeChar isn't one of the nine
// primitives/void.
func PrimitiveTypeName(typeChar byte) string {
	switch typeChar {
	case 'B':
		return "byte"
	case 'C':
		return "char"
	case 'D':
		return "double"
	case 'F':
		return "float"
	case 'I':
		return "int"
	case 'J':
		return "long"
	case 'S':
		return "short"
	case 'V':
		return "void"
	case 'Z':
		return "boolean"
	default:
		return ""
	}
}

// shortyForDescriptor collapses a single type descriptor to its one-letter
// shorty form: primitives map to themselves, every array and reference type
// collapses to 'L'.
func shortyForDescriptor(descriptor string) byte {
	if descriptor == "" {
		return 'V'
	}
	if descriptor[0] == '[' || descriptor[0] == 'L' {
		return 'L'
	}
	return descriptor[0]
}

// ExtractParamDescriptors splits a parameter descriptor run (the
// "(...)" interior of a method's full descriptor) into individual type
// descriptors.
func ExtractParamDescriptors(descriptors string) []string {
	var params []string
	i := 0
	for i < len(descriptors) {
		start := i
		for descriptors[i] == '[' {
			i++
		}
		switch descriptors[i] {
		case 'L':
			for descriptors[i] != ';' {
				i++
			}
			i++
		default:
			i++
		}
		params = append(params, descriptors[start:i])
	}
	return params
}

// ExtractMethodDescriptor splits a fully-qualified method descriptor of the
// form "Lcom/example/Foo;->bar(I)V" into its class descriptor, method name,
// return descriptor and parameter descriptors.
func ExtractMethodDescriptor(methodDescriptor string) (classDesc, name, returnDesc string, params []string) {
	arrow := strings.Index(methodDescriptor, "->")
	if arrow >= 0 {
		classDesc = methodDescriptor[:arrow]
	}
	open := strings.IndexByte(methodDescriptor, '(')
	close := strings.IndexByte(methodDescriptor, ')')
	if arrow >= 0 && open >= 0 {
		name = methodDescriptor[arrow+2 : open]
	}
	if close >= 0 {
		returnDesc = methodDescriptor[close+1:]
	}
	if open >= 0 && close >= 0 && close > open {
		params = ExtractParamDescriptors(methodDescriptor[open+1 : close])
	}
	return
}

// DeclToDescriptor converts a Java declared type name ("java.lang.String",
// "int[]") to its descriptor form ("Ljava/lang/String;", "[I").
func DeclToDescriptor(decl string) string {
	var b strings.Builder
	dims := strings.Count(decl, "[")
	for i := 0; i < dims; i++ {
		b.WriteByte('[')
	}
	base := decl
	if idx := strings.IndexByte(base, '['); idx >= 0 {
		base = base[:idx]
	}
	switch {
	case strings.HasPrefix(base, "int"):
		b.WriteByte('I')
	case strings.HasPrefix(base, "long"):
		b.WriteByte('J')
	case strings.HasPrefix(base, "float"):
		b.WriteByte('F')
	case strings.HasPrefix(base, "double"):
		b.WriteByte('D')
	case strings.HasPrefix(base, "char"):
		b.WriteByte('C')
	case strings.HasPrefix(base, "byte"):
		b.WriteByte('B')
	case strings.HasPrefix(base, "short"):
		b.WriteByte('S')
	case strings.HasPrefix(base, "boolean"):
		b.WriteByte('Z')
	case strings.HasPrefix(base, "void"):
		b.WriteByte('V')
	default:
		b.WriteByte('L')
		for _, c := range base {
			if c == '.' {
				b.WriteByte('/')
			} else {
				b.WriteRune(c)
			}
		}
		b.WriteByte(';')
	}
	return b.String()
}

// DescriptorToMatchShorty builds a match-shorty string from a return
// descriptor and a list of parameter descriptors; an empty entry becomes
// '*', matching any type at that position.
func DescriptorToMatchShorty(returnDesc string, paramDescs []string) string {
	var b strings.Builder
	if returnDesc == "" {
		b.WriteByte('*')
	} else {
		b.WriteByte(shortyForDescriptor(returnDesc))
	}
	for _, p := range paramDescs {
		if p == "" {
			b.WriteByte('*')
			continue
		}
		b.WriteByte(shortyForDescriptor(p))
	}
	return b.String()
}

// ShortyDescriptorMatch reports whether matchShorty matches methodShorty,
// where '*' in matchShorty matches any character at that position.
func ShortyDescriptorMatch(matchShorty, methodShorty string) bool {
	if len(matchShorty) != len(methodShorty) {
		return false
	}
	for i := 0; i < len(matchShorty); i++ {
		if matchShorty[i] == '*' {
			continue
		}
		if matchShorty[i] != methodShorty[i] {
			return false
		}
	}
	return true
}
