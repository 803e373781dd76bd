package core

// CandidateRecord is the transient, possibly incomplete bundle of training
// features for one edit. Optional fields are nil when the source could not
// provide them; Title and Creator are empty when unknown.
type CandidateRecord struct {
	EditID    int64
	Title     string
	Namespace int

	Comment           string
	User              string
	UserEditCount     *int
	UserDistinctPages *int
	UserWarns         *int
	UserRegTime       *int64
	PrevUser          *string

	PageMadeTime        *int64
	Creator             string
	NumRecentEdits      *int
	NumRecentReversions *int

	IsVandalism *bool
	Current     *Revision
	Previous    *Revision

	Reviewers         *int
	ReviewersAgreeing *int

	// EditDBSource is the provenance group name carried by imported sets.
	EditDBSource string
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
