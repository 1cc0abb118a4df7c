// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"strings"
	"unicode"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
)

var scalarNames = map[string]T{
	"ANY":       T_any,
	"BOOL":      T_bool,
	"BOOLEAN":   T_bool,
	"TINYINT":   T_int8,
	"SMALLINT":  T_int16,
	"INT":       T_int32,
	"INTEGER":   T_int32,
	"BIGINT":    T_int64,
	"REAL":      T_float32,
	"FLOAT":     T_float32,
	"DOUBLE":    T_float64,
	"TIMESTAMP": T_timestamp,
	"VARCHAR":   T_varchar,
	"STRING":    T_varchar,
	"VARBINARY": T_varbinary,
	"OPAQUE":    T_opaque,
}

// ParseType reads a type written the way Type.String prints it, e.g.
// "MAP(VARCHAR, ARRAY(TINYINT))" or "ROW(a INTEGER, b VARCHAR)".
// Keywords are case insensitive.
func ParseType(s string) (Type, error) {
	p := &typeParser{src: s}
	typ, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, p.errorf("unexpected trailing input")
	}
	return typ, nil
}

// MustParseType is ParseType for literals known to be valid.
func MustParseType(s string) Type {
	typ, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return typ
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(msg string) error {
	return moerr.NewParseErrorNoCtx("%s at offset %d in %q", msg, p.pos, p.src)
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(c byte) error {
	if !p.accept(c) {
		return p.errorf("expected '" + string(c) + "'")
	}
	return nil
}

func (p *typeParser) parseType() (Type, error) {
	word := p.ident()
	if word == "" {
		return Type{}, p.errorf("expected type name")
	}
	switch strings.ToUpper(word) {
	case "ARRAY":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		elem, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err = p.expect(')'); err != nil {
			return Type{}, err
		}
		return NewArrayType(elem), nil
	case "MAP":
		if err := p.expect('('); err != nil {
			return Type{}, err
		}
		key, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err = p.expect(','); err != nil {
			return Type{}, err
		}
		value, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err = p.expect(')'); err != nil {
			return Type{}, err
		}
		return NewMapType(key, value), nil
	case "ROW":
		return p.parseRow()
	}
	oid, ok := scalarNames[strings.ToUpper(word)]
	if !ok {
		return Type{}, p.errorf("unknown type " + word)
	}
	return oid.ToType(), nil
}

// parseRow reads "(f1, f2, ...)" where each field is "type" or "name type".
// Either every field is named or none is.
func (p *typeParser) parseRow() (Type, error) {
	if err := p.expect('('); err != nil {
		return Type{}, err
	}
	var names []string
	var fields []Type
	named := -1
	for {
		save := p.pos
		name := p.ident()
		p.skipSpace()
		isNamed := name != "" && p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != ')' && p.src[p.pos] != '('
		if !isNamed {
			p.pos = save
		}
		if named == -1 {
			named = 0
			if isNamed {
				named = 1
			}
		} else if (named == 1) != isNamed {
			return Type{}, p.errorf("mixed named and unnamed row fields")
		}
		field, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if isNamed {
			names = append(names, name)
		}
		fields = append(fields, field)
		if p.accept(')') {
			break
		}
		if err = p.expect(','); err != nil {
			return Type{}, err
		}
	}
	return NewRowType(names, fields...), nil
}
