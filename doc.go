// Package answerdesk answers help desk questions from a fixed knowledge
// base and records the questions it cannot answer.
//
// A Service is built once at startup and shared by every request handler:
//
//	cfg, err := config.Load("answerdesk.yaml")
//	svc, err := answerdesk.NewFromConfig(ctx, cfg)
//	defer svc.Close()
//
//	text, err := svc.GenerateAnswer(ctx, "how do I reset my MIS password?")
//
// GenerateAnswer normalizes the question, embeds it, ranks the corpus by
// cosine similarity and composes the response. When nothing clears the
// threshold it returns the not-found message and records the question in
// the question log on a background worker.
package answerdesk
