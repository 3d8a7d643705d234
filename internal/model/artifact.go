package model

import (
    "encoding/json"
    "time"
)

// Per-phase output records.  Each belongs to a session and is removed with
// it.  Apart from the scaffold completion flag these rows are write-once.

// TechnicalSpec is the planner phase output.  Versions are assigned by the
// repository as max(version)+1 per session inside the insert transaction.
type TechnicalSpec struct {
    ID           string          // technical_specs.id
    SessionID    string          // technical_specs.session_id
    Requirements *string         // technical_specs.requirements (nullable)
    Architecture *string         // technical_specs.architecture (nullable)
    TechStack    json.RawMessage // technical_specs.tech_stack (JSON object, never null)
    Version      int             // technical_specs.version
    CreatedAt    time.Time       // technical_specs.created_at
}

// DocumentationLink is the librarian phase output: a scraped documentation
// source scored for relevance.
type DocumentationLink struct {
    ID             string    // documentation_links.id
    SessionID      string    // documentation_links.session_id
    TechName       string    // documentation_links.tech_name
    DocURL         string    // documentation_links.doc_url
    ScrapedContent *string   // documentation_links.scraped_content (nullable)
    RelevanceScore *float64  // documentation_links.relevance_score (nullable)
    CreatedAt      time.Time // documentation_links.created_at
}

// CodeScaffold is the mentor phase output: a file skeleton with ordered
// learning hints.  Completed starts false and is the only mutable field.
type CodeScaffold struct {
    ID        string          // code_scaffolds.id
    SessionID string          // code_scaffolds.session_id
    FilePath  string          // code_scaffolds.file_path
    Content   string          // code_scaffolds.content
    Hints     json.RawMessage // code_scaffolds.hints (JSON array of strings)
    Completed bool            // code_scaffolds.completed
    CreatedAt time.Time       // code_scaffolds.created_at
}
