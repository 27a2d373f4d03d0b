package trustcloud

// Wire shapes of the captured TrustCloud documents. Field names
// follow the SPA's API payloads verbatim.

type Section struct {
	ReferenceID          string          `json:"referenceId"`
	DisplayIdentifier    string          `json:"displayIdentifier"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	ID                   string          `json:"id"`
	ProgramPolicyMapping []PolicyMapping `json:"programPolicyMapping"`
	Subsections          []Subsection    `json:"subsections"`
}

type PolicyMapping struct {
	ShortName   string `json:"shortName"`
	ID          string `json:"id"`
	Description string `json:"description"`
	Title       string `json:"title"`
}

type Subsection struct {
	ProgramControlMapping []ControlMapping `json:"programControlMapping"`
}

type ControlMapping struct {
	ShortName       string `json:"shortName"`
	CustomShortName string `json:"customShortName"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	ID              string `json:"id"`
}

// PolicyCapability is one row of the policies capability capture,
// authoritative for policy-to-control edges and security groups.
type PolicyCapability struct {
	ID                string   `json:"id"`
	RelatedControlIDs []string `json:"relatedControlIds"`
	SecurityGroup     string   `json:"securityGroup"`
}

// StandardsCapability is one row of the control-to-standard capture.
type StandardsCapability struct {
	ShortName         string            `json:"shortName"`
	ComplianceMapping ComplianceMapping `json:"complianceMapping"`
}

type ComplianceMapping struct {
	MappedStandards []string                    `json:"mappedStandards"`
	Mappings        map[string]FrameworkMapping `json:"mappings"`
}

type FrameworkMapping struct {
	Controls []MappedControl `json:"controls"`
}

type MappedControl struct {
	ControlID   string `json:"controlId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Section     string `json:"section"`
}
