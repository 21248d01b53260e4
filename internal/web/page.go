package web

import "html/template"

type pageData struct {
	Title     string
	ModelName string
	State     stateView
}

var indexTmpl = template.Must(template.New("cells").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    :root{
      --bg: #f3f4f6;
      --panel: #ffffff;
      --border: #e5e7eb;
      --fg: #111827;
      --muted: #6b7280;
      --accent: #2563eb;
    }
    *{ box-sizing: border-box }
    body { margin:0; background:var(--bg); color:var(--fg); font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial }
    header { padding: 12px 24px; border-bottom: 1px solid var(--border); background: var(--panel); display:flex; gap: 12px; align-items: baseline }
    header h1 { margin:0; font-size: 1.1rem }
    header span { color: var(--muted); font-size: .9rem }
    header a { margin-left: auto; color: var(--accent); font-size: .9rem }
    main { display:flex; gap: 16px; padding: 16px; height: calc(100vh - 50px) }
    #cells-pane { flex: 0 0 66.666%; overflow-y: auto; padding-right: 8px }
    #dynamic-container { display:flex; flex-wrap:wrap; gap:1rem; width:100% }
    .cell { border-radius: 8px; padding: 1rem; overflow: auto; box-shadow: 0 1px 2px rgba(0,0,0,.08) }
    .cell.text, .cell.placeholder, .cell.empty { background: #ffffff }
    .cell h3 { margin: 0 0 .25rem 0; font-size: 1.25rem; font-weight: 700 }
    .cell p { margin: 0 0 .75rem 0; font-size: .875rem; line-height: 1.4 }
    .cell .none { color: var(--muted); font-style: italic }
    .empty-hint { color: var(--muted); padding: 2rem }
    #chat-pane { flex: 1; display:flex; flex-direction: column; background: var(--panel); border: 1px solid var(--border); border-radius: 8px; min-width: 0 }
    #chat-box { flex: 1; overflow-y: auto; padding: 12px }
    .msg { margin: 0 0 10px 0; padding: 8px 12px; border-radius: 8px; white-space: pre-wrap; word-wrap: break-word }
    .msg.user { background: #dbeafe; margin-left: 24px }
    .msg.assistant { background: #f3f4f6; margin-right: 24px }
    .msg.md { white-space: normal }
    .msg.md p { margin: 0 0 .5rem 0 }
    .msg.md p:last-child { margin-bottom: 0 }
    form { display:flex; gap: 8px; padding: 12px; border-top: 1px solid var(--border) }
    input[type=text] { flex:1; padding: 8px 10px; border: 1px solid var(--border); border-radius: 6px; font-size: 1rem }
    button { padding: 8px 14px; border: 0; border-radius: 6px; background: var(--accent); color: #fff; font-size: 1rem; cursor: pointer }
    button:disabled { opacity: .5; cursor: default }
    #notice { color: var(--muted); font-size: .85rem; padding: 0 12px 8px 12px; min-height: 1.2em }
    #overlay { position: fixed; inset: 0; background: rgba(17,24,39,.45); display:none; align-items:center; justify-content:center; z-index: 10 }
    #overlay.on { display:flex }
    #overlay div { background: var(--panel); padding: 24px 32px; border-radius: 10px; font-weight: 600 }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    {{if .ModelName}}<span>{{.ModelName}}</span>{{end}}
    <a href="/export?format=markdown">Export</a>
  </header>
  <main>
    <section id="cells-pane">
      <div id="dynamic-container">
        {{range .State.Cells}}
        <div class="cell {{.Kind}}" data-key="{{.Key}}" style="{{.SafeStyle}}">
          {{if eq (print .Kind) "text"}}{{range .Text}}<h3>{{.Caption}}</h3><p>{{.Content}}</p>{{end}}
          {{else if eq (print .Kind) "placeholder"}}<p class="none">{{.Placeholder}}</p>{{end}}
        </div>
        {{else}}
        <div class="empty-hint">Cells will appear here.</div>
        {{end}}
      </div>
    </section>
    <section id="chat-pane">
      <div id="chat-box">
        {{range .State.Messages}}<div class="msg {{.Role}}{{if .HTML}} md{{end}}">{{if .HTML}}{{.SafeHTML}}{{else}}{{.Content}}{{end}}</div>{{end}}
      </div>
      <div id="notice"></div>
      <form id="chat-form">
        <input id="chat-input" type="text" autocomplete="off" placeholder="Describe the cells you want..." />
        <button id="send" type="submit">Send</button>
      </form>
    </section>
  </main>
  <div id="overlay" class="{{if .State.Loading}}on{{end}}"><div>Generating cells...</div></div>
  <script>
  (function(){
    const container = document.getElementById('dynamic-container');
    const chatBox = document.getElementById('chat-box');
    const form = document.getElementById('chat-form');
    const input = document.getElementById('chat-input');
    const send = document.getElementById('send');
    const overlay = document.getElementById('overlay');
    const notice = document.getElementById('notice');
    let generation = {{.State.Generation}};

    function el(tag, cls, text){
      const n = document.createElement(tag);
      if (cls) n.className = cls;
      if (text !== undefined) n.textContent = text;
      return n;
    }

    function renderCells(cells){
      container.replaceChildren();
      if (!cells.length){
        container.appendChild(el('div', 'empty-hint', 'Cells will appear here.'));
        return;
      }
      for (const c of cells){
        const box = el('div', 'cell ' + c.kind);
        box.dataset.key = c.key;
        box.setAttribute('style', c.style);
        if (c.kind === 'text'){
          for (const t of (c.text || [])){
            box.appendChild(el('h3', '', t.caption));
            box.appendChild(el('p', '', t.content));
          }
        } else if (c.kind === 'placeholder'){
          box.appendChild(el('p', 'none', 'No text content available'));
        }
        container.appendChild(box);
      }
    }

    function renderChat(messages){
      chatBox.replaceChildren();
      for (const m of messages){
        if (m.html){
          const n = el('div', 'msg ' + m.role + ' md');
          n.innerHTML = m.html;
          chatBox.appendChild(n);
        } else {
          chatBox.appendChild(el('div', 'msg ' + m.role, m.content));
        }
      }
      chatBox.scrollTop = chatBox.scrollHeight;
    }

    function apply(state){
      if (state.generation < generation) return;
      generation = state.generation;
      renderCells(state.cells || []);
      renderChat(state.messages || []);
      overlay.classList.toggle('on', state.loading);
      send.disabled = state.loading;
    }

    function connect(){
      const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
      const ws = new WebSocket(proto + location.host + '/ws');
      ws.onmessage = (e) => apply(JSON.parse(e.data));
      ws.onclose = () => setTimeout(connect, 2000);
    }

    form.addEventListener('submit', async (e) => {
      e.preventDefault();
      const text = input.value;
      if (!text.trim()) return;
      input.value = '';
      notice.textContent = '';
      try {
        const res = await fetch('/api/messages', {
          method: 'POST',
          headers: {'Content-Type': 'application/json'},
          body: JSON.stringify({message: text}),
        });
        if (res.status === 409){
          // busy: the text is put back instead of dropped so it can be resent
          input.value = text;
          notice.textContent = 'Still working on the previous request.';
          return;
        }
        if (res.ok && res.status !== 204) apply(await res.json());
      } catch (err) {
        input.value = text;
        notice.textContent = 'Could not reach the server.';
      }
    });

    chatBox.scrollTop = chatBox.scrollHeight;
    connect();
  })();
  </script>
</body>
</html>
`))
