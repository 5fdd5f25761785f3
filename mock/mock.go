package mock

//go:generate go tool moq -out mock_gen.go -pkg mock .. LLMClient Session Tool
