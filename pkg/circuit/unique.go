package circuit

import (
	"strconv"
	"unicode"
)

// nameSpace tracks names in use for one kind of circuit member. Counts allow
// merged nets to share a name.
type nameSpace struct {
	used map[string]int
	next map[string]int
}

func (s *nameSpace) init() {
	if s.used == nil {
		s.used = make(map[string]int)
		s.next = make(map[string]int)
	}
}

func (s *nameSpace) has(name string) bool {
	return s.used[name] > 0
}

func (s *nameSpace) add(name string) {
	s.init()
	s.used[name]++
}

func (s *nameSpace) release(name string) {
	if s.used[name] == 0 {
		return
	}
	s.used[name]--
	if s.used[name] == 0 {
		delete(s.used, name)
		clear(s.next)
	}
}

// claim reserves and returns a unique name. Without a requested name it is
// prefix followed by the smallest unused number. A requested name that is
// taken gets _1, _2 and so on until it is free.
func (s *nameSpace) claim(prefix, requested string) string {
	s.init()
	if requested == "" {
		if endsInDigit(prefix) {
			prefix += "_"
		}
		for i := max(s.next[prefix], 1); ; i++ {
			name := prefix + strconv.Itoa(i)
			if !s.has(name) {
				s.next[prefix] = i + 1
				s.add(name)
				return name
			}
		}
	}
	if !s.has(requested) {
		s.add(requested)
		return requested
	}
	for k := 1; ; k++ {
		name := requested + "_" + strconv.Itoa(k)
		if !s.has(name) {
			s.add(name)
			return name
		}
	}
}

func endsInDigit(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsDigit(rune(s[len(s)-1]))
}
