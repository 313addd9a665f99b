package service

const (
	modeGenerate = "generate"
	modeStream   = "stream"
	modeRecreate = "recreate"
)

const (
	systemPromptRecreate = `
You are an illustrator. Study the uploaded image and produce a new picture that recreates it
as faithfully as possible, together with a short description of what it shows.`

	userPromptRecreate = "Recreate this image. Describe it in two or three sentences first, then return the image."
)
