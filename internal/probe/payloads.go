package probe

// Payloads is the attack data and target fixtures fed to the probes.
// DefaultPayloads returns the stock catalogue; callers may override fields.
type Payloads struct {
	// AdminEmail is the account targeted by brute force and enumeration.
	AdminEmail string
	// AdminUsername is looked up through the public profile endpoint.
	AdminUsername string

	LeakPaths        []string
	CommonPasswords  []string
	StuffingAccounts int
	StuffingPassword string

	WeakJWTSecrets []string
	TamperedToken  string
	ForgedAdmin    string

	SQLPayloads      []string
	SQLQueryPayloads int
	NoSQLPayloads    []any
	CommandPayloads  []string

	XSSPayloads      []string
	StoredXSSSamples int

	ProtectedEndpoints []Endpoint
	HostileOrigins     []string

	WebhookMalformed []Body

	SensitiveHealthKeys   []string
	SensitiveProfileKeys  []string
	InternalErrorMarkers  []string
	HealthDisclosureWords []string
}

// Endpoint is a method and path relative to the API base URL.
type Endpoint struct {
	Method string
	Path   string
}

func (e Endpoint) String() string {
	return e.Method + " " + e.Path
}

// Body is a request body variant. Raw wins over JSON; both nil sends no body.
type Body struct {
	Raw  []byte
	JSON any
}

// DefaultPayloads returns the built-in payload catalogue.
func DefaultPayloads() Payloads {
	return Payloads{
		AdminEmail:    "admin@myfans.my",
		AdminUsername: "admin",

		LeakPaths: []string{
			"/.env", "/api/v1/.env", "/.git/config", "/api/docs",
			"/api/swagger.json", "/api/v1/swagger", "/debug",
			"/api/v1/debug", "/graphql", "/api/graphql",
			"/.well-known/security.txt", "/robots.txt", "/sitemap.xml",
		},
		CommonPasswords: []string{
			"password", "123456", "12345678", "admin", "letmein",
			"welcome", "monkey", "1234567", "dragon", "111111",
			"baseball", "master", "qwerty", "abc123", "login",
			"admin123", "Password1", "p@ssw0rd", "1q2w3e4r",
			"passw0rd",
		},
		StuffingAccounts: 20,
		StuffingPassword: "Password123",

		WeakJWTSecrets: []string{
			"secret", "jwt_secret", "mysecret", "password", "key",
			"myfans", "myfans-secret", "test", "development",
			"changeme", "default", "123456", "qwerty",
		},
		TamperedToken: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiJhZG1pbiIsInJvbGUiOiJhZG1pbiJ9.tampered",
		ForgedAdmin:   "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiJ1c2VyLTEiLCJyb2xlIjoiYWRtaW4ifQ.fake",

		SQLPayloads: []string{
			"' OR '1'='1",
			"'; DROP TABLE users;--",
			"1' UNION SELECT * FROM users--",
			"admin'--",
			"1; DELETE FROM users WHERE 1=1",
			"' AND (SELECT COUNT(*) FROM information_schema.tables) > 0--",
			"') OR ('1'='1",
			"' OR SLEEP(5)--",
			"1' AND 1=CONVERT(int, (SELECT TOP 1 table_name FROM information_schema.tables))--",
			"' UNION ALL SELECT NULL,password_hash,NULL FROM users--",
		},
		SQLQueryPayloads: 5,
		NoSQLPayloads: []any{
			map[string]any{"$gt": ""},
			map[string]any{"$ne": nil},
			map[string]any{"$regex": ".*"},
			map[string]any{"$where": "1==1"},
		},
		CommandPayloads: []string{"; ls -la", "| cat /etc/passwd", "$(whoami)", "`id`"},

		XSSPayloads: []string{
			`<script>alert("XSS")</script>`,
			`<img src=x onerror=alert(1)>`,
			`<svg/onload=alert(1)>`,
			`javascript:alert(1)`,
			`"><img src=x onerror=alert(1)>`,
			`'><script>alert(document.cookie)</script>`,
			`<body onload=alert(1)>`,
			`<details open ontoggle=alert(1)>`,
			`<math><mtext><table><mglyph><style><!--</style><img src=x onerror=alert(1)>`,
			`<a href="data:text/html,<script>alert(1)</script>">click</a>`,
		},
		StoredXSSSamples: 3,

		ProtectedEndpoints: []Endpoint{
			{"GET", "/auth/me"},
			{"GET", "/users/me"},
			{"PATCH", "/users/me"},
			{"GET", "/users/me/settings"},
			{"GET", "/subscriptions"},
			{"GET", "/fancoins/wallet"},
			{"GET", "/fancoins/transactions"},
			{"GET", "/notifications"},
			{"GET", "/admin/dashboard"},
			{"GET", "/admin/users"},
			{"POST", "/posts"},
			{"POST", "/fancoins/tip"},
			{"POST", "/subscriptions"},
		},
		HostileOrigins: []string{
			"https://evil-attacker.com",
			"https://myfans.evil.com",
			"https://myfans.my.evil.com",
			"null",
			"https://localhost.evil.com",
			"http://127.0.0.1",
		},

		WebhookMalformed: []Body{
			{Raw: []byte{}},
			{Raw: []byte("not json")},
			{Raw: []byte(`{"invalid"}`)},
			{},
			{JSON: map[string]any{"type": nil, "data": nil}},
			{JSON: map[string]any{"type": "payment"}},
		},

		SensitiveHealthKeys:   []string{"database", "redis", "env", "config", "secret", "key", "password", "token"},
		SensitiveProfileKeys:  []string{"passwordHash", "password", "email", "phoneNumber", "dateOfBirth"},
		InternalErrorMarkers:  []string{"internal", "postgresql", "drizzle", "neon"},
		HealthDisclosureWords: []string{"secret", "database"},
	}
}
