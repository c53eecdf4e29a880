package types

import (
	"strconv"
	"strings"
)

// ToLineProtocol encodes the point as one line of line protocol:
//
//	measurement[,tag=value...][,globalTags] field=value[,field=value...] epochNanos
//
// globalTags is an already joined "k=v,k2=v2" segment and may be empty.
// Names and values are written verbatim; nothing is escaped.
func (p *Point) ToLineProtocol(globalTags string) string {
	var sb strings.Builder

	sb.Grow(len(p.name) + len(globalTags) + 16*(len(p.tags)+len(p.fields)) + 21)
	sb.WriteString(p.name)

	for _, t := range p.tags {
		sb.WriteByte(',')
		sb.WriteString(t.Key)
		sb.WriteByte('=')
		sb.WriteString(t.Value)
	}

	if globalTags != "" {
		sb.WriteByte(',')
		sb.WriteString(globalTags)
	}

	sb.WriteByte(' ')

	for i, f := range p.fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Key)
		sb.WriteByte('=')
		sb.WriteString(FormatValue(f.Value))
	}

	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatInt(p.timestamp.UnixNano(), 10))

	return sb.String()
}

// FormatValue renders a field value the way it appears on the wire.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10) + "i"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return `"` + v + `"`
	case bool:
		return strconv.FormatBool(v)
	default:
		return FormatValue(normalize(v))
	}
}
