package extraction

import (
	"regexp"
	"strings"
)

// Vocabulary is the fixed list of skill terms recognised in resume text,
// lowercased.
var Vocabulary = []string{
	// languages
	"javascript", "typescript", "python", "java", "csharp", "c#", "c++", "cpp", "ruby", "php", "go", "golang", "rust", "kotlin", "scala", "swift",
	// frontend
	"react", "vue", "angular", "html", "css", "tailwind", "bootstrap", "next.js", "nextjs", "nuxt", "svelte",
	// backend
	"nodejs", "node.js", "express", "django", "flask", "fastapi", "spring", "spring boot", "rails", "laravel", "asp.net", "gin", "fiber",
	// data stores
	"mongodb", "postgresql", "postgres", "mysql", "redis", "elasticsearch", "sql", "firestore", "dynamodb",
	// platforms and tooling
	"docker", "kubernetes", "aws", "gcp", "azure", "git", "gitlab", "github", "jenkins", "ci/cd", "terraform",
	// practices
	"rest", "graphql", "grpc", "microservices", "api", "agile", "scrum", "testing", "jest", "mocha", "webpack",
	"machine learning", "ml", "ai", "deep learning", "nlp", "computer vision",
	"aws lambda", "serverless", "firebase",
	"linux", "unix", "bash", "shell", "powershell",
	"figma", "adobe", "ui/ux", "wireframing",
	"data analysis", "analytics", "tableau", "powerbi", "excel",
}

// Aliases maps a lowercased vocabulary term to its canonical display name.
// Terms without an entry are title-cased word by word.
var Aliases = map[string]string{
	"javascript":    "JavaScript",
	"typescript":    "TypeScript",
	"c++":           "C++",
	"cpp":           "C++",
	"csharp":        "C#",
	"c#":            "C#",
	"golang":        "Go",
	"php":           "PHP",
	"html":          "HTML",
	"css":           "CSS",
	"nodejs":        "Node.js",
	"node.js":       "Node.js",
	"nextjs":        "Next.js",
	"next.js":       "Next.js",
	"fastapi":       "FastAPI",
	"spring boot":   "Spring Boot",
	"asp.net":       "ASP.NET",
	"mongodb":       "MongoDB",
	"postgresql":    "PostgreSQL",
	"postgres":      "PostgreSQL",
	"mysql":         "MySQL",
	"sql":           "SQL",
	"dynamodb":      "DynamoDB",
	"aws":           "AWS",
	"gcp":           "GCP",
	"gitlab":        "GitLab",
	"github":        "GitHub",
	"ci/cd":         "CI/CD",
	"rest":          "REST",
	"graphql":       "GraphQL",
	"grpc":          "gRPC",
	"api":           "API",
	"ml":            "ML",
	"ai":            "AI",
	"nlp":           "NLP",
	"aws lambda":    "AWS Lambda",
	"ui/ux":         "UI/UX",
	"powershell":    "PowerShell",
	"powerbi":       "Power BI",
	"elasticsearch": "Elasticsearch",
}

type skillPattern struct {
	term string
	re   *regexp.Regexp
}

var skillPatterns = compileVocabulary(Vocabulary)

// compileVocabulary builds one whole-word matcher per term. Term boundaries are
// any non-alphanumeric rune so that "c++" and "node.js" match as written.
func compileVocabulary(terms []string) []skillPattern {
	out := make([]skillPattern, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		pat := `(^|[^a-z0-9+#])` + regexp.QuoteMeta(t) + `([^a-z0-9+#]|$)`
		out = append(out, skillPattern{term: t, re: regexp.MustCompile(pat)})
	}
	return out
}

// NormalizeSkill returns the canonical display name of a vocabulary term.
func NormalizeSkill(term string) string {
	key := strings.ToLower(strings.TrimSpace(term))
	if v, ok := Aliases[key]; ok {
		return v
	}
	words := strings.Fields(key)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
