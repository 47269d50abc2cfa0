// Package answer turns a question into a cited, conversation-aware answer.
//
// An Orchestrator resolves the session, expands the question with the
// conversation's topics, retrieves ranked evidence, prompts the generator
// once (with a short retry), strips markup from the reply, cites up to five
// source files and records the exchange. Each call moves through the stages
// idle, retrieving, empty or ranking, generating, sanitizing, persisting and
// done; stage changes are logged at debug level.
//
// Two outcomes are answers rather than errors. When retrieval finds nothing,
// the response carries NoInformationAnswer and no sources. When the model
// keeps failing, the response is marked Degraded and its text describes the
// failure. Neither is recorded in the session.
package answer
