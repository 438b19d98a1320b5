package core

import "strconv"

// SectionSeparator joins a section's base to its parent's id.
var SectionSeparator = "_"

// Sections is the stack of unique-id sections for one Build.
//
// Every subtree built during a request is built inside a Section.
// A Section's id is its parent's id joined with its base, and the
// base is either given explicitly or taken from a counter that
// belongs to the parent.  As long as a request enters and leaves
// sections in the same order as a previous request (with the same
// explicit bases), it gets the same ids.
//
// Not safe for concurrent use.  Each Build gets its own.
type Sections struct {
	frames []*Section
}

// Section is one frame on a Sections stack.
type Section struct {
	// Id is the section's full id.
	Id string

	counter int
	depth   int
	s       *Sections
}

// NewSections makes a stack with a root frame with the given id.
func NewSections(root string) *Sections {
	s := &Sections{
		frames: make([]*Section, 1, 16),
	}
	s.frames[0] = &Section{
		Id: root,
		s:  s,
	}
	return s
}

// Top returns the innermost section.
func (s *Sections) Top() *Section {
	return s.frames[len(s.frames)-1]
}

// Depth reports the number of sections entered and not yet left.
func (s *Sections) Depth() int {
	return len(s.frames) - 1
}

// Enter starts a section that takes its base from the parent's
// counter.
//
// The caller must arrange for Leave to be called on every path:
//
//	sec := b.Sections.Enter()
//	defer sec.Leave()
func (s *Sections) Enter() *Section {
	parent := s.Top()
	base := strconv.Itoa(parent.counter)
	parent.counter++
	return s.push(parent, base)
}

// EnterBase starts a section with the given explicit base.  The
// parent's counter is not touched.
func (s *Sections) EnterBase(base string) *Section {
	return s.push(s.Top(), base)
}

func (s *Sections) push(parent *Section, base string) *Section {
	id := base
	if parent.Id != "" {
		id = parent.Id + SectionSeparator + base
	}
	sec := &Section{
		Id:    id,
		depth: len(s.frames),
		s:     s,
	}
	s.frames = append(s.frames, sec)
	return sec
}

// Leave ends the section, which must be the innermost one.
//
// Leaving a section out of order is a programming error, and Leave
// panics.
func (sec *Section) Leave() {
	s := sec.s
	if sec.depth == 0 || sec.depth != len(s.frames)-1 || s.frames[sec.depth] != sec {
		panic("section " + strconv.Quote(sec.Id) + " is not the innermost section")
	}
	s.frames[sec.depth] = nil
	s.frames = s.frames[:sec.depth]
}
