// Package citation defines the core types shared by the extraction, selection, and sync subsystems.
package citation
