package preview

// indexHTML is the browser shell. It fetches /preview into the page and
// re-fetches on SSE document events; the ETag on /preview keeps the
// refreshes cheap.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Ansuz Preview</title>
<style>
  body { margin: 0; font-family: -apple-system, "Segoe UI", sans-serif;
         background: #1e1e1e; color: #d4d4d4; }
  main { max-width: 48rem; margin: 0 auto; padding: 2rem 1.5rem; }
  a { color: #4fc1ff; }
  pre { background: #252526; padding: 0.75rem; border-radius: 4px; overflow-x: auto; }
  code { font-family: "SF Mono", Consolas, monospace; font-size: 0.9em; }
  blockquote { border-left: 3px solid #4fc1ff; margin-left: 0; padding-left: 1rem; color: #9e9e9e; }
  table { border-collapse: collapse; }
  th, td { border: 1px solid #3c3c3c; padding: 0.3rem 0.6rem; }
</style>
</head>
<body>
<main id="content"><p>Connecting…</p></main>
<script>
  const content = document.getElementById('content');

  async function refresh() {
    const res = await fetch('/preview');
    if (res.status === 200) {
      content.innerHTML = await res.text();
    }
  }

  const events = new EventSource('/events');
  for (const type of ['preview.updated', 'document.selected', 'document.created', 'document.deleted']) {
    events.addEventListener(type, refresh);
  }
  events.onerror = () => setTimeout(refresh, 2000);

  refresh();
</script>
</body>
</html>
`
