package eramba

// Wire shapes of the Eramba proxy documents. Field names follow the
// proxy's JSON payloads verbatim.

type RegulatorsDocument struct {
	Data []Regulator `json:"data"`
}

type Regulator struct {
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Created            string              `json:"created"`
	Version            string              `json:"version"`
	URL                string              `json:"url"`
	RegulationName     string              `json:"regulation_name"`
	CompliancePackages []CompliancePackage `json:"compliance_packages"`
}

type CompliancePackage struct {
	CompliancePackageItems []PackageItem `json:"compliance_package_items"`
}

type PackageItem struct {
	ItemID               string               `json:"item_id"`
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	ID                   string               `json:"id"`
	ComplianceManagement ComplianceManagement `json:"compliance_management"`
}

type ComplianceManagement struct {
	SecurityPolicies []PolicyRef  `json:"security_policies"`
	SecurityServices []ServiceRef `json:"security_services"`
}

// PolicyRef points at a security policy by its title ("index").
type PolicyRef struct {
	Index string `json:"index"`
}

// ServiceRef points at a security service by display name.
type ServiceRef struct {
	Name string `json:"name"`
}

type SecurityServicesDocument struct {
	Data []SecurityService `json:"data"`
}

type SecurityService struct {
	ID                     int         `json:"id"`
	Name                   string      `json:"name"`
	Objective              string      `json:"objective"`
	AuditMetricDescription string      `json:"audit_metric_description"`
	AuditSuccessCriteria   string      `json:"audit_success_criteria"`
	Created                string      `json:"created"`
	SecurityPolicies       []PolicyRef `json:"security_policies"`
}

type SecurityPoliciesDocument struct {
	Data []SecurityPolicy `json:"data"`
}

type SecurityPolicy struct {
	Index       string `json:"index"`
	Description string `json:"description"`
	ID          int    `json:"id"`
	Version     string `json:"version"`
}
