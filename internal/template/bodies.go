package template

const companyIdentityBody = `
{{.DisplayName}} is built and operated by {{.Org}}. Code, copy and commit history in this repository represent {{.Org}}.

- Refer to the product as "{{.DisplayName}}".
- The internal project identifier is ` + "`{{.Slug}}`" + `.
{{- if .ColorPrimary}}
- Primary brand colour: ` + "`{{.ColorPrimary}}`" + `{{if .ColorAccent}}, accent colour: ` + "`{{.ColorAccent}}`" + `{{end}}.
{{- end}}
`

const overviewBody = `
{{.DisplayName}} is a project managed in ConsoleBlue.
{{- if .Description}}

{{.Description}}
{{- end}}
{{- if .ProductionURL}}

**Production URL:** {{.ProductionURL}}
{{- end}}
{{- if .SubdomainURL}}
**Subdomain:** {{.SubdomainURL}}
{{- end}}
{{- if .RepoURL}}
**Repository:** {{.RepoURL}}
{{- end}}

**Status:** {{.Status}}
`

const techStackBody = `
The following technologies and tools are used in this project:
{{range .Tags}}
- {{.}}
{{- else}}
- None recorded yet.
{{- end}}
`

const gettingStartedBody = `
Follow these steps to work with this project:
{{if .RepoURL}}
1. Clone the repository: ` + "`git clone {{.RepoURL}}.git`" + `
2. Checkout the default branch: ` + "`git checkout {{.Branch}}`" + `
3. Install dependencies (see repository README for details)
4. Configure environment variables as needed
5. Start the development server
{{- else}}
1. Review project settings in ConsoleBlue
2. Link a GitHub repository to enable code access
3. Add project-specific documentation as needed
{{- end}}
`

const restrictionsBody = `
Follow these rules when changing {{.DisplayName}}:

- Never commit secrets, tokens or credentials.
- Do not hand-edit ` + "`{{.TargetPath}}`" + `; it is regenerated from ConsoleBlue.
{{- range .Restrictions}}
- {{.}}
{{- end}}
`

const uniqueFeaturesBody = `
{{- if .Features}}
What sets {{.DisplayName}} apart:
{{range .Features}}
- {{.}}
{{- end}}
{{- else}}
No unique features have been recorded for {{.DisplayName}} yet. Add them in ConsoleBlue under the project's custom settings.
{{- end}}
`

const generalDirectionBody = `
{{- if .StatusNote}}
{{.StatusNote}}
{{- else}}
Direction for {{.DisplayName}} has not been set.
{{- end}}
{{- if .ProductionURL}}

Changes ship to {{.ProductionURL}}.
{{- end}}
`
