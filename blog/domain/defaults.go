package domain

// DefaultCollection returns the seed posts shown when no tier holds data.
// Each call returns a fresh copy.
func DefaultCollection() Collection {
	return Collection{
		{
			Slug:    "getting-started-with-nextjs",
			Title:   "Getting Started with Next.js",
			Date:    "2023-05-10",
			Excerpt: "Today I learned how to set up a Next.js project and explored its file-based routing system.",
			Tags:    []string{"Next.js", "React", "Web Development"},
			Content: []ContentBlock{
				TextBlock("Today I started learning Next.js and I'm really impressed with how easy it is to get started. The file-based routing system is intuitive and powerful."),
				TextBlock("To create a new Next.js project, you can use the following command:"),
				CodeBlock("npx create-next-app@latest my-next-app", "bash"),
				TextBlock("The file structure is very intuitive. For example, to create a new page, you just need to add a new file to the pages directory:"),
				CodeBlock(`// pages/about.js
export default function About() {
  return (
    <div>
      <h1>About Page</h1>
      <p>This is the about page</p>
    </div>
  )
}`, "jsx"),
				TextBlock("I'm excited to learn more about Next.js and build more complex applications with it!"),
			},
		},
	}
}
