package prompts

import (
	"fmt"
	"strings"
)

// PromptBuilder handles the construction of prompts for the LLM
type PromptBuilder struct {
	baseContext string
	examples    string
}

// NewPromptBuilder creates a new PromptBuilder with schema context
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		baseContext: SchemaContext,
		examples:    QueryExamples,
	}
}

// BuildQueryPrompt creates a prompt for SQL query generation
func (pb *PromptBuilder) BuildQueryPrompt(query string) string {
	return fmt.Sprintf(`You are a SQL query generator for a Chicago election results database. Follow these rules strictly:

%s

%s

Query Rules:
1. precinct_id is always a 5-character zero-padded string; ward
   comparisons use SUBSTRING(precinct_id FROM 1 FOR 2) against a
   2-digit zero-padded literal like '03'
2. Exclude the synthetic options 'registered' and 'ballots' when the
   question is about candidates; use them (and only them) for
   registration/turnout questions
3. Use LOWER() with LIKE for contest_name matching
4. When joining precinct_geometries, always restrict the vintage:
   year BETWEEN valid_from_year AND COALESCE(valid_to_year, 9999)
5. Include year in the WHERE clause whenever the question names one

Now generate a SQL query for this question: %s`, pb.baseContext, pb.examples, query)
}

// BuildValidationPrompt creates a prompt for validating generated SQL
func (pb *PromptBuilder) BuildValidationPrompt(query, sql string) string {
	return fmt.Sprintf(`You are a SQL query validator. Your task is to validate if the generated SQL query correctly answers the user's question.
Rules:
1. Candidate questions must exclude the synthetic 'registered'/'ballots' options
2. Ward-level questions must derive the ward from precinct_id, not the raw ward column
3. Joins to precinct_geometries must restrict the boundary vintage by year
4. Verify WHERE clause conditions match the question

User Question: %s
Generated SQL: %s

Respond with:
- "VALID" if the query is correct
- "INVALID: <reason>" if the query is incorrect, explaining why
`, query, sql)
}

// ExtractYear attempts to extract year from the query
func (pb *PromptBuilder) ExtractYear(query string) string {
	return fmt.Sprintf(`Extract the year from this query: "%s"

Rules:
1. Return only the 4-digit year if found
2. Return "any" if no specific year is mentioned
3. Handle variations like "in 2019", "during 2019", "the 2019 runoff"
4. If multiple years are mentioned, return the most relevant one

Year:`, strings.ToLower(query))
}

// BuildErrorPrompt creates a prompt for generating user-friendly error messages
func (pb *PromptBuilder) BuildErrorPrompt(query string, err error) string {
	return fmt.Sprintf(`Generate a user-friendly error message for this failed query:

Question: "%s"

Error: %v

Requirements:
1. Explain the issue in simple terms
2. Suggest how to rephrase the question
3. Keep the message concise and helpful

Error Message:`, query, err)
}
