package models

// PatchRecord is one row of the inventory report. Every field except
// Hostname and OracleHome is best-effort: a value the parser could not
// find stays empty rather than dropping the record.
type PatchRecord struct {
	Hostname        string `json:"hostname"`
	SID             string `json:"sid,omitempty"`
	OracleHome      string `json:"oracleHome"`
	OracleVersion   string `json:"oracleVersion,omitempty"`
	OPatchVersion   string `json:"opatchVersion,omitempty"`
	DatabaseRelease string `json:"databaseRelease,omitempty"`
	OJVMRelease     string `json:"ojvmRelease,omitempty"`
	OCWRelease      string `json:"ocwRelease,omitempty"`
}

// RawInventory is the unparsed command output captured from one Oracle
// home before the parser turns it into a PatchRecord.
type RawInventory struct {
	OracleHome   string
	SID          string
	LspatchesOut string
	VersionOut   string
	SQLPlusOut   string
}
