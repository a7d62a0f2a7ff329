// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "sync"

// classIndexEntry locates one parsed class inside its owning DexFile.
type classIndexEntry struct {
	file *DexFile
	def  *ClassDef
}

// methodIndexEntry locates one method inside its class, with the decoded
// code item attached when the method has one.
type methodIndexEntry struct {
	file *DexFile
	def  *ClassDef
	enc  EncodedMethod
	code *CodeItem // nil for abstract/native methods
}

// fieldIndexEntry locates one field inside its class.
type fieldIndexEntry struct {
	file *DexFile
	def  *ClassDef
	enc  EncodedField
}

// index is the session's lazily-built cross-reference layer: every index
// described by the reverse-lookup requirements (string users, call graph,
// field accessors, class name lookup) is built once, on first use, and
// cached for the session's lifetime. Annotation directories are not held
// here; each DexFile caches its own.
type index struct {
	dexFiles []*DexFile

	classesOnce sync.Once
	classes     []classIndexEntry
	classByName map[string]*classIndexEntry

	methodsOnce sync.Once
	methods     []methodIndexEntry
	methodByID  map[EncodedID]*methodIndexEntry

	fieldsOnce sync.Once
	fields     []fieldIndexEntry
	fieldByID  map[EncodedID]*fieldIndexEntry

	stringUsersOnce sync.Once
	stringUsers     map[uint64]map[string][]EncodedID // dexOrdinal -> string text -> methods referencing it

	callGraphOnce sync.Once
	callees       map[EncodedID][]EncodedID
	callers       map[EncodedID][]EncodedID

	fieldAccessOnce sync.Once
	fieldReaders    map[EncodedID][]EncodedID
	fieldWriters    map[EncodedID][]EncodedID
}

func newIndex(files []*DexFile) *index {
	return &index{dexFiles: files}
}

// buildClasses enumerates every class_def across every DEX image and
// indexes it by its fully-qualified descriptor.
func (ix *index) buildClasses() {
	ix.classesOnce.Do(func() {
		ix.classByName = make(map[string]*classIndexEntry)
		for _, df := range ix.dexFiles {
			for i := range df.classDefs {
				cd := &df.classDefs[i]
				ix.classes = append(ix.classes, classIndexEntry{file: df, def: cd})
			}
		}
		for i := range ix.classes {
			e := &ix.classes[i]
			name, err := e.file.TypeDescriptor(e.def.ClassIdx)
			if err != nil {
				continue
			}
			ix.classByName[name] = e
		}
	})
}

// buildMethods enumerates every direct and virtual method of every class,
// parsing its code_item (if any) eagerly.
func (ix *index) buildMethods() {
	ix.buildClasses()
	ix.methodsOnce.Do(func() {
		ix.methodByID = make(map[EncodedID]*methodIndexEntry)
		for _, ce := range ix.classes {
			cdata, err := ce.file.ClassData(ce.def)
			if err != nil {
				continue
			}
			for _, em := range append(append([]EncodedMethod{}, cdata.DirectMethods...), cdata.VirtualMethods...) {
				var code *CodeItem
				if em.CodeOff != 0 {
					code, _ = parseCodeItem(ce.file.data, em.CodeOff)
				}
				ix.methods = append(ix.methods, methodIndexEntry{file: ce.file, def: ce.def, enc: em, code: code})
			}
		}
		for i := range ix.methods {
			m := &ix.methods[i]
			id := encodeID(m.file.ordinal, KindMethod, m.enc.MethodIdx)
			ix.methodByID[id] = m
		}
	})
}

// buildFields enumerates every static and instance field of every class.
func (ix *index) buildFields() {
	ix.buildClasses()
	ix.fieldsOnce.Do(func() {
		ix.fieldByID = make(map[EncodedID]*fieldIndexEntry)
		for _, ce := range ix.classes {
			cdata, err := ce.file.ClassData(ce.def)
			if err != nil {
				continue
			}
			for _, ef := range append(append([]EncodedField{}, cdata.StaticFields...), cdata.InstanceFields...) {
				ix.fields = append(ix.fields, fieldIndexEntry{file: ce.file, def: ce.def, enc: ef})
			}
		}
		for i := range ix.fields {
			f := &ix.fields[i]
			id := encodeID(f.file.ordinal, KindField, f.enc.FieldIdx)
			ix.fieldByID[id] = f
		}
	})
}

// buildStringUsers walks every method's code, recording which methods
// reference which DEX string ids — the reverse index string-constrained
// queries are planned against.
func (ix *index) buildStringUsers() {
	ix.buildMethods()
	ix.stringUsersOnce.Do(func() {
		ix.stringUsers = make(map[uint64]map[string][]EncodedID)
		for i := range ix.methods {
			m := &ix.methods[i]
			if m.code == nil {
				continue
			}
			methodID := encodeID(m.file.ordinal, KindMethod, m.enc.MethodIdx)
			wr := walkCode(m.code)
			seen := make(map[string]bool, len(wr.Strings))
			for _, sr := range wr.Strings {
				s, err := m.file.String(sr.StringIdx)
				if err != nil {
					continue
				}
				if seen[s] {
					continue
				}
				seen[s] = true
				if ix.stringUsers[uint64(m.file.ordinal)] == nil {
					ix.stringUsers[uint64(m.file.ordinal)] = make(map[string][]EncodedID)
				}
				bucket := ix.stringUsers[uint64(m.file.ordinal)]
				bucket[s] = append(bucket[s], methodID)
			}
		}
	})
}

// MethodsUsingString returns every method (by EncodedID) whose code
// references a string equal to s, within the given DEX image.
func (ix *index) MethodsUsingString(ordinal uint16, s string) []EncodedID {
	ix.buildStringUsers()
	bucket, ok := ix.stringUsers[uint64(ordinal)]
	if !ok {
		return nil
	}
	return bucket[s]
}

// buildCallGraph walks every method's code, recording the callee set for
// each caller and the inverse caller set for each callee. Every invoke
// target is recorded by its method_id in the caller's DEX, including
// methods that no loaded image defines.
func (ix *index) buildCallGraph() {
	ix.buildMethods()
	ix.callGraphOnce.Do(func() {
		ix.callees = make(map[EncodedID][]EncodedID)
		ix.callers = make(map[EncodedID][]EncodedID)
		for i := range ix.methods {
			m := &ix.methods[i]
			if m.code == nil {
				continue
			}
			callerID := encodeID(m.file.ordinal, KindMethod, m.enc.MethodIdx)
			wr := walkCode(m.code)
			for _, mr := range wr.Methods {
				calleeID := encodeID(m.file.ordinal, KindMethod, mr.MethodIdx)
				ix.callees[callerID] = append(ix.callees[callerID], calleeID)
				ix.callers[calleeID] = append(ix.callers[calleeID], callerID)
			}
		}
	})
}

// Callees returns every method called, directly, by method id.
func (ix *index) Callees(id EncodedID) []EncodedID {
	ix.buildCallGraph()
	return ix.callees[id]
}

// Callers returns every method that directly calls method id.
func (ix *index) Callers(id EncodedID) []EncodedID {
	ix.buildCallGraph()
	return ix.callers[id]
}

// buildFieldAccess walks every method's code, recording which methods
// read and which write each field id.
func (ix *index) buildFieldAccess() {
	ix.buildMethods()
	ix.fieldAccessOnce.Do(func() {
		ix.fieldReaders = make(map[EncodedID][]EncodedID)
		ix.fieldWriters = make(map[EncodedID][]EncodedID)
		for i := range ix.methods {
			m := &ix.methods[i]
			if m.code == nil {
				continue
			}
			methodID := encodeID(m.file.ordinal, KindMethod, m.enc.MethodIdx)
			wr := walkCode(m.code)
			for _, fr := range wr.Fields {
				fieldID := encodeID(m.file.ordinal, KindField, fr.FieldIdx)
				if fr.Access == FieldRead {
					ix.fieldReaders[fieldID] = append(ix.fieldReaders[fieldID], methodID)
				} else {
					ix.fieldWriters[fieldID] = append(ix.fieldWriters[fieldID], methodID)
				}
			}
		}
	})
}

// FieldReaders returns every method that reads field id.
func (ix *index) FieldReaders(id EncodedID) []EncodedID {
	ix.buildFieldAccess()
	return ix.fieldReaders[id]
}

// FieldWriters returns every method that writes field id.
func (ix *index) FieldWriters(id EncodedID) []EncodedID {
	ix.buildFieldAccess()
	return ix.fieldWriters[id]
}

// ClassByName resolves a fully-qualified type descriptor (e.g.
// "Lcom/example/Foo;") to its class_def, if loaded.
func (ix *index) ClassByName(descriptor string) (*classIndexEntry, bool) {
	ix.buildClasses()
	e, ok := ix.classByName[descriptor]
	return e, ok
}

// Method resolves an EncodedID to its method entry.
func (ix *index) Method(id EncodedID) (*methodIndexEntry, bool) {
	ix.buildMethods()
	m, ok := ix.methodByID[id]
	return m, ok
}

// Field resolves an EncodedID to its field entry.
func (ix *index) Field(id EncodedID) (*fieldIndexEntry, bool) {
	ix.buildFields()
	f, ok := ix.fieldByID[id]
	return f, ok
}
