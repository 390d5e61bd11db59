// Package knowledge loads question/answer pairs and embeds them into an
// in-memory corpus.
//
// A knowledge source is a spreadsheet (.xlsx) or CSV file with a header row
// naming a question column and an answer column. Headers match
// case-insensitively; the Korean headers 질문 and 답변 are accepted too.
//
// Questions are normalized before embedding with the same normalizer used
// for queries, so lexical variants of an acronym land on the same vector.
package knowledge
