package types

import (
	"strings"
	"sync"

	lineProto "github.com/influxdata/line-protocol"
)

// TagSet is an append-only set of tags shared by every point a writer
// encodes. It is safe for concurrent use.
type TagSet struct {
	mu      sync.RWMutex
	tags    []*lineProto.Tag
	encoded string
}

func NewTagSet(tags ...*lineProto.Tag) *TagSet {
	s := &TagSet{}
	for _, t := range tags {
		s.Add(t.Key, t.Value)
	}

	return s
}

// Add appends key=value. Keys are not deduplicated.
func (s *TagSet) Add(key, value string) {
	s.mu.Lock()
	s.tags = append(s.tags, &lineProto.Tag{Key: key, Value: value})
	s.encoded = encodeTags(s.tags)
	s.mu.Unlock()
}

// Get returns a copy of the tags in insertion order.
func (s *TagSet) Get() []*lineProto.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tagsCopy := make([]*lineProto.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		tCopy := *t
		tagsCopy = append(tagsCopy, &tCopy)
	}

	return tagsCopy
}

func (s *TagSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tags)
}

// String returns the tags joined as "k=v,k2=v2", or "" when empty.
func (s *TagSet) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.encoded
}

func encodeTags(tags []*lineProto.Tag) string {
	var sb strings.Builder

	for i, t := range tags {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(t.Key)
		sb.WriteByte('=')
		sb.WriteString(t.Value)
	}

	return sb.String()
}
