package main

import "fmt"

const abbreviationSystemPrompt = `You are a helpful biomedical data curator with a background in human diseases and human genetics designed to output JSON.

Answer with medical conditions only: diseases, disorders, syndromes, phenotypes or clinical findings.
Spell each condition out in full using its most common clinical name. Do not repeat the abbreviation itself.`

func abbreviationUserPrompt(abbreviation string) string {
	return fmt.Sprintf("What are other medical conditions represented by the abbreviation %s? "+
		"Return this as a list. The key of the content message should be conditions.", abbreviation)
}
