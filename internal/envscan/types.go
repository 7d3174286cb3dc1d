package envscan

// EnvType classifies what an environment variable carries
type EnvType int

const (
	EnvTypeUnknown EnvType = iota
	EnvTypeSecret
	EnvTypeDatabase
	EnvTypeConfig
	EnvTypeGenerated // detected as generated (uuid, token, random string)
	EnvTypeURL
	EnvTypeBoolean
	EnvTypeNumeric
)

func (t EnvType) String() string {
	switch t {
	case EnvTypeSecret:
		return "secret"
	case EnvTypeDatabase:
		return "database"
	case EnvTypeConfig:
		return "config"
	case EnvTypeGenerated:
		return "generated"
	case EnvTypeURL:
		return "url"
	case EnvTypeBoolean:
		return "boolean"
	case EnvTypeNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Result is one classified environment variable
type Result struct {
	VarName    string  `json:"name"`
	Value      string  `json:"value"`
	Type       EnvType `json:"-"`
	TypeName   string  `json:"type"`
	Sensitive  bool    `json:"sensitive"`
	Source     string  `json:"source"` // e.g. "compose:/path/to/file"
	Confidence int     `json:"confidence"`
}
