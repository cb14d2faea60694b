package models

// Auth strategies supported by the API connector.
const (
	AuthTypeNone   = "none"
	AuthTypeBearer = "bearer"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "api_key"
)

// Body encodings supported by the API connector.
const (
	BodyTypeJSON = "json"
	BodyTypeForm = "form"
	BodyTypeRaw  = "raw"
)

// Param types for connector parameters.
const (
	ParamTypeQuery = "query"
	ParamTypeBody  = "body"
)

// ConnectorAuth configures the authentication strategy of an outbound call.
// Every value is rendered through the session store before use.
type ConnectorAuth struct {
	Type        string `json:"type"`
	Token       string `json:"token,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	HeaderName  string `json:"headerName,omitempty"`
	HeaderValue string `json:"headerValue,omitempty"`
}

// ConnectorParam is one query or body parameter entry.
type ConnectorParam struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// ConnectorConfig drives one outbound HTTP integration. It is entirely
// node-local: there is no fixed schema beyond these fields.
type ConnectorConfig struct {
	Method           string            `json:"method"`
	URL              string            `json:"url"`
	Headers          map[string]string `json:"headers,omitempty"`
	Params           []ConnectorParam  `json:"params,omitempty"`
	BodyType         string            `json:"bodyType,omitempty"`
	Body             string            `json:"body,omitempty"`
	Auth             ConnectorAuth     `json:"auth"`
	TimeoutMs        int               `json:"timeoutMs,omitempty"`
	Retries          int               `json:"retries,omitempty"`
	RetryOnHTTPError bool              `json:"retryOnHttpError,omitempty"`
}

// ResponseMapping binds a dotted path of the response document to a
// session variable.
type ResponseMapping struct {
	JSONPath     string `json:"jsonPath"`
	VariableName string `json:"variableName"`
	Enabled      bool   `json:"enabled"`
}
