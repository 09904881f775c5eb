package carbon

// Mode names the kind of copy being made.
type Mode string

const (
	// ModeShallow copies the top-level container only.
	ModeShallow Mode = "shallow"

	// ModeDeep copies everything reachable from the value.
	ModeDeep Mode = "deep"
)

// CopyTag is the value of a `copy:"..."` struct tag.
type CopyTag string

const (
	// TagShallow shares the field between the original and the copy.
	TagShallow CopyTag = "shallow"

	// TagSkip leaves the field at its zero value in the copy.
	TagSkip CopyTag = "-"
)

// validCopyTags contains the accepted copy tag values.
var validCopyTags = map[CopyTag]bool{
	TagShallow: true,
	TagSkip:    true,
}

// IsValidCopyTag returns true if the tag value is understood by the default struct reducer.
func IsValidCopyTag(tag CopyTag) bool {
	return validCopyTags[tag]
}
