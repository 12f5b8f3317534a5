package database

// DefaultLookupRoles 是首次启动时写入的岗位字典。
func DefaultLookupRoles() []LookupRole {
	return []LookupRole{
		{RoleName: "ROV Pilot Technician Grade II", Category: "ROV"},
		{RoleName: "ROV Pilot Technician Grade I", Category: "ROV"},
		{RoleName: "ROV Senior Pilot Technician", Category: "ROV"},
		{RoleName: "ROV Supervisor", Category: "ROV"},
		{RoleName: "Survey Engineer", Category: "Survey"},
		{RoleName: "Online Surveyor", Category: "Survey"},
		{RoleName: "Client Representative", Category: "Management"},
		{RoleName: "Offshore Construction Manager", Category: "Management"},
		{RoleName: "Deck Crew", Category: "Marine"},
		{RoleName: "Dynamic Positioning Operator", Category: "Marine"},
	}
}

// DefaultLookupCerts 是首次启动时写入的证书字典。
func DefaultLookupCerts() []LookupCert {
	return []LookupCert{
		{CertName: "BOSIET", Category: "Safety"},
		{CertName: "FOET", Category: "Safety"},
		{CertName: "HUET", Category: "Safety"},
		{CertName: "CA-EBS", Category: "Safety"},
		{CertName: "OGUK Medical", Category: "Medical"},
		{CertName: "ENG1 Medical", Category: "Medical"},
		{CertName: "IMCA ROV Competence", Category: "Technical"},
		{CertName: "High Voltage Awareness", Category: "Technical"},
		{CertName: "STCW Basic Safety", Category: "Maritime"},
		{CertName: "DP Induction", Category: "Maritime"},
	}
}
