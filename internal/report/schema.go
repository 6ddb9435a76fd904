package report

// Schema is the JSON Schema (Draft 2020-12) for the smelltest JSON
// report. It documents the structure written by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/smelltest/run-report.schema.json",
  "title": "smelltest Run Report",
  "description": "Output schema for smelltest --format=json",
  "type": "object",
  "required": ["version", "run_id", "root", "filter", "reference_date", "results", "summary"],
  "properties": {
    "version": {
      "type": "string",
      "description": "Report format version (semver)"
    },
    "run_id": {
      "type": "string",
      "description": "Unique id of the run (UUID)"
    },
    "root": {
      "type": "string",
      "description": "Fixture root directory"
    },
    "filter": {
      "type": "string",
      "description": "Smell-name substring filter; empty when all smells ran"
    },
    "reference_date": {
      "type": "string",
      "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
      "description": "Date handed to the fixer (YYYY-MM-DD)"
    },
    "results": {
      "type": "array",
      "items": { "$ref": "#/$defs/Result" }
    },
    "summary": { "$ref": "#/$defs/Summary" }
  },
  "$defs": {
    "Result": {
      "type": "object",
      "required": ["fixture", "verdict", "before", "after"],
      "properties": {
        "fixture": { "$ref": "#/$defs/Fixture" },
        "verdict": {
          "type": "string",
          "enum": ["SKIPPED_BAD_FIXTURE", "FIXED", "NOT_FIXED"]
        },
        "before": { "$ref": "#/$defs/Findings" },
        "after": { "$ref": "#/$defs/Findings" },
        "diagnostic": {
          "type": "string",
          "description": "Why a fixture was skipped or could not be checked"
        }
      }
    },
    "Fixture": {
      "type": "object",
      "required": ["path", "category"],
      "properties": {
        "path": { "type": "string" },
        "category": { "type": "string" }
      }
    },
    "Findings": {
      "description": "Smell identifiers reported by the linter; null when the linter was not run or failed",
      "type": ["array", "null"],
      "items": { "type": "string" },
      "uniqueItems": true
    },
    "Summary": {
      "type": "object",
      "required": ["total", "fixed", "not_fixed", "bad_fixtures", "categories"],
      "properties": {
        "total": { "type": "integer", "minimum": 0 },
        "fixed": { "type": "integer", "minimum": 0 },
        "not_fixed": { "type": "integer", "minimum": 0 },
        "bad_fixtures": { "type": "integer", "minimum": 0 },
        "categories": {
          "type": "array",
          "items": { "$ref": "#/$defs/CategorySummary" }
        }
      }
    },
    "CategorySummary": {
      "type": "object",
      "required": ["name", "fixtures", "fixed", "not_fixed", "bad_fixtures"],
      "properties": {
        "name": { "type": "string" },
        "fixtures": { "type": "integer", "minimum": 0 },
        "fixed": { "type": "integer", "minimum": 0 },
        "not_fixed": { "type": "integer", "minimum": 0 },
        "bad_fixtures": { "type": "integer", "minimum": 0 }
      }
    }
  }
}`
