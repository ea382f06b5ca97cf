// SPDX-License-Identifier: MPL-2.0

// Package render produces the static comparison table pages.
//
// Each page embeds the availability matrix, documentation links, and alias
// map as JSON and builds the interactive table client-side: search box,
// per-version column hiding, availability tooltips. The layout follows the
// published site: one page per feature kind, cross-linked in the nav.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"
)

// Page describes one comparison table page.
type Page struct {
	// Title is the document title.
	Title string
	// Header is the page heading.
	Header string
	// FeatureType is the singular feature noun ("function", "keyword",
	// "setting") used in labels.
	FeatureType string
	// Versions is the column order, matching the run's version order.
	Versions []string
	// Availability maps each feature to the versions containing it.
	Availability map[string][]string
	// Docs maps documented features to their deep links.
	Docs map[string]string
	// Aliases maps alternative feature names to canonical ones.
	Aliases map[string]string
	// GeneratedAt stamps the footer.
	GeneratedAt time.Time
}

type pageView struct {
	Page
	AvailabilityJSON template.JS
	DocsJSON         template.JS
	AliasesJSON      template.JS
	VersionsJSON     template.JS
	Generated        string
}

// Renderer renders comparison table pages.
type Renderer struct {
	tmpl *template.Template
}

// New parses the page template.
func New() (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page document to w.
func (r *Renderer) Render(w io.Writer, page Page) error {
	view := pageView{
		Page:      page,
		Generated: page.GeneratedAt.Format("2006-01-02 15:04"),
	}

	for _, field := range []struct {
		dst *template.JS
		src any
	}{
		{&view.AvailabilityJSON, page.Availability},
		{&view.DocsJSON, page.Docs},
		{&view.AliasesJSON, page.Aliases},
		{&view.VersionsJSON, page.Versions},
	} {
		payload, err := json.MarshalIndent(field.src, "    ", "    ")
		if err != nil {
			return fmt.Errorf("encoding page data: %w", err)
		}
		*field.dst = template.JS(payload)
	}

	if err := r.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css" rel="stylesheet" integrity="sha384-QWTKZyjpPEjISv5WaRU9OFeRpok6YctnYmDr5pNlyT2bRjXh0JMhjY6hW+ALEwIH" crossorigin="anonymous">
    <script>
    var availability = {{.AvailabilityJSON}};
    var docs = {{.DocsJSON}};
    var aliases = {{.AliasesJSON}};
    var versions = {{.VersionsJSON}};
    </script>
    <style>
    body {
        font-size: 13px;
    }
    .main {
        margin-top: 20px;
    }
    #feature_table {
        width: 100%;
        overflow-x: auto;
        display: block;
    }
    #feature_table th, #feature_table td {
        white-space: nowrap;
        padding: 5px;
    }
    .tooltip {
        position: absolute;
        background-color: black;
        color: white;
        padding: 10px;
        border-radius: 5px;
        z-index: 1000;
    }
    #hidden-column-buttons {
        margin-top: 10px;
    }
    #hidden-column-buttons button {
        font-size: 0.8rem;
        padding: 0.2rem 0.4rem;
    }
    </style>
</head>
<body>
<div class="container-fluid">
    <h1>{{.Header}}</h1>
    <nav>[ <a href="index.html">Function Reference</a> | <a href="keywords.html">Keyword Reference</a> | <a href="settings.html">Setting Reference</a> ]</nav>
    <div class="main">
        <input type="text" id="search" class="form-control mb-3" onkeyup="search()" placeholder="Search for {{.FeatureType}}s...">
        <div class="table-responsive">
            <table id="feature_table" class="table table-bordered table-sm"></table>
        </div>
        <p class="mt-3">* indicates an alias to another {{.FeatureType}}</p>
    </div>
    <footer class="mt-3">
        <p>Source on <a href='https://github.com/JosephRedfern/clickhouse-function-reference'>GitHub</a> | last updated {{.Generated}}</p>
    </footer>
</div>
<script>
    function search() {
        const input = document.getElementById('search').value.toUpperCase();
        const table = document.getElementById('feature_table');
        const rows = table.getElementsByTagName('tr');
        for (let i = 1; i < rows.length; i++) {
            const cells = rows[i].getElementsByTagName('td');
            let found = false;
            for (const cell of cells) {
                if (cell.textContent.toUpperCase().includes(input)) {
                    found = true;
                    break;
                }
            }
            rows[i].style.display = found ? '' : 'none';
        }
    }

    let hiddenColumns = new Set();

    function toggleColumn(index) {
        const table = document.getElementById('feature_table');
        const rows = table.getElementsByTagName('tr');

        if (hiddenColumns.has(index)) {
            hiddenColumns.delete(index);
            for (let i = 0; i < rows.length; i++) {
                rows[i].cells[index].style.display = '';
            }
        } else {
            hiddenColumns.add(index);
            for (let i = 0; i < rows.length; i++) {
                rows[i].cells[index].style.display = 'none';
            }
        }

        updateHiddenColumnButtons();
    }

    function updateHiddenColumnButtons() {
        let buttonContainer = document.getElementById('hidden-column-buttons');
        if (!buttonContainer) {
            buttonContainer = document.createElement('div');
            buttonContainer.id = 'hidden-column-buttons';
            buttonContainer.className = 'mb-2';
            document.querySelector('.main').insertBefore(buttonContainer, document.getElementById('feature_table').parentNode);
        }

        buttonContainer.innerHTML = '';

        hiddenColumns.forEach(index => {
            const version = versions[index - 1];
            const button = document.createElement('button');
            button.textContent = '+ ' + version;
            button.className = 'btn btn-outline-primary btn-sm me-1 mb-1';
            button.onclick = () => toggleColumn(index);
            buttonContainer.appendChild(button);
        });

        buttonContainer.style.display = hiddenColumns.size > 0 ? 'block' : 'none';
    }

    const table = document.getElementById('feature_table');
    const features = Object.keys(availability);
    const header = table.createTHead();
    const headerRow = header.insertRow(0);
    headerRow.insertCell(0);

    for (let i = 0; i < versions.length; i++) {
        const version = versions[i];
        const cell = headerRow.insertCell();
        cell.textContent = version;
        cell.style.cursor = 'pointer';
        cell.title = 'Click to hide this column';
        cell.onclick = () => toggleColumn(i + 1);
    }

    for (const feature of features) {
        const row = table.insertRow();
        const cell = row.insertCell();

        var url = null;

        if (docs.hasOwnProperty(feature)) {
            url = docs[feature];
        } else if (aliases.hasOwnProperty(feature)) {
            url = docs[aliases[feature]];
        }

        if (url) {
            const link = document.createElement('a');
            link.href = url;
            link.textContent = feature;
            cell.appendChild(link);
        } else {
            cell.textContent = feature;
        }

        if (aliases.hasOwnProperty(feature)) {
            cell.append('*');
        }

        for (const version of versions) {
            const cell = row.insertCell();
            if (availability[feature].includes(version)) {
                cell.textContent = '✓';
                cell.style.backgroundColor = 'green';
            } else {
                cell.textContent = '✗';
                cell.style.backgroundColor = 'red';
            }
            cell.onmouseover = () => showTooltip(cell, version, feature);
            cell.onmouseout = () => hideTooltip(cell);
        }
    }

    function showTooltip(cell, version, feature) {
        const tooltip = document.createElement('div');
        tooltip.className = 'tooltip';

        if (availability[feature].includes(version)) {
            tooltip.textContent = feature + ' is available in ' + version;
        } else {
            tooltip.textContent = feature + ' is not available in ' + version;
        }

        cell.appendChild(tooltip);
    }

    function hideTooltip(cell) {
        cell.removeChild(cell.lastChild);
    }
</script>
<script src="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js" integrity="sha384-YvpcrYf0tY3lHB60NNkmXc5s9fDVZLESaAA55NDzOxhy9GkcIdslK1eN7N6jIeHz" crossorigin="anonymous"></script>
</body>
</html>
`
