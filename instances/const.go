package instances

const (
	fmtErrMissingField = "instance %d: field '%s' is required"
	fmtErrDuplicate    = "instance %d: duplicate name %q"
)
