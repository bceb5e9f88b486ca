package detect

import (
	"fmt"

	"github.com/smartreview/detection/internal/domain"
)

// CategorySpec binds an analysis category to its prompt builder. The table in
// categorySpecs drives the per-file analysis loop.
type CategorySpec struct {
	Category    string
	BuildPrompt func(language, content string) string
}

func categorySpecs() []CategorySpec {
	return []CategorySpec{
		{Category: domain.CategorySecurity, BuildPrompt: securityPrompt},
		{Category: domain.CategoryPerformance, BuildPrompt: performancePrompt},
		{Category: domain.CategoryQuality, BuildPrompt: qualityPrompt},
		{Category: domain.CategoryBestPractices, BuildPrompt: bestPracticesPrompt},
	}
}

// specsFor filters the category table down to the requested categories.
// An empty filter keeps all categories.
func specsFor(categories []string) []CategorySpec {
	all := categorySpecs()
	if len(categories) == 0 {
		return all
	}
	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}
	specs := make([]CategorySpec, 0, len(all))
	for _, spec := range all {
		if _, ok := wanted[spec.Category]; ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

const issueFormatBlock = `Return results in this exact format:
ISSUE_START
type: [ISSUE_TYPE]
severity: [SEVERITY]
line: [LINE_NUMBER]
description: [DESCRIPTION]
code: [CODE_SNIPPET]
ISSUE_END

Code to analyze:
%s
`

func securityPrompt(language, content string) string {
	return fmt.Sprintf(`Analyze this %s code for security vulnerabilities. Focus on:
- SQL Injection vulnerabilities
- Cross-Site Scripting (XSS) risks
- Insecure deserialization
- Hardcoded credentials or secrets
- Cryptographic weaknesses
- Authentication/authorization flaws
- Path traversal vulnerabilities

For each issue found, provide:
1. Issue type (e.g., "SQL_INJECTION")
2. Severity (critical/high/medium/low)
3. Line number(s) affected
4. Detailed description explaining impact and context (2-3 sentences)
5. The vulnerable code snippet

DESCRIPTION FORMAT: Start with the vulnerability type, explain the security risk,
describe the potential impact (e.g., "SQL Injection vulnerability allows attackers
to manipulate database queries. This could lead to unauthorized data access,
modification, or deletion. The user input is directly concatenated into the SQL query without validation.")

`+issueFormatBlock, language, content)
}

func performancePrompt(language, content string) string {
	return fmt.Sprintf(`Analyze this %s code for performance issues. Focus on:
- Time complexity problems (O(n²) or worse)
- Memory leaks or excessive allocation
- Inefficient database queries
- Blocking I/O operations
- Unnecessary loops or recursion
- Missing caching opportunities

For each issue found, provide:
1. Issue type (e.g., "INEFFICIENT_LOOP")
2. Severity (high/medium/low)
3. Line number(s) affected
4. Performance impact description
5. The problematic code snippet

`+issueFormatBlock, language, content)
}

func qualityPrompt(language, content string) string {
	return fmt.Sprintf(`Analyze this %s code for quality issues. Focus on:
- Code duplication (DRY violations)
- High cyclomatic complexity
- Poor naming conventions
- Missing error handling
- Lack of documentation
- Code smells and anti-patterns

For each issue found, provide:
1. Issue type (e.g., "CODE_DUPLICATION")
2. Severity (medium/low)
3. Line number(s) affected
4. Quality impact description
5. The problematic code snippet

`+issueFormatBlock, language, content)
}

func bestPracticesPrompt(language, content string) string {
	return fmt.Sprintf(`Analyze this %s code for violations of language-specific best practices. Focus on:
- Language idioms and conventions
- Framework-specific patterns
- Resource management
- Exception handling patterns
- Concurrency issues
- Dependency management

For each issue found, provide:
1. Issue type (e.g., "RESOURCE_LEAK")
2. Severity (medium/low)
3. Line number(s) affected
4. Best practice description
5. The problematic code snippet

`+issueFormatBlock, language, content)
}
