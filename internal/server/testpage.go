package server

import "net/http"

// handleTestPage serves a self-contained HTML page for poking the WebSocket
// endpoint from a browser.
func (s *Server) handleTestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(testPageHTML))
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Chat Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; cursor: pointer; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Chat Relay Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(text) {
            const el = document.createElement('div');
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss' : 'ws';
            ws = new WebSocket(scheme + '://' + location.host + '/ws');
            ws.onopen = () => { addMessage('connected'); updateStatus(true); };
            ws.onmessage = (event) => addMessage(event.data);
            ws.onclose = () => { addMessage('connection closed'); updateStatus(false); ws = null; };
            ws.onerror = () => addMessage('connection error');
        }

        function toggleConnection() {
            if (ws) { ws.close(); } else { connect(); }
        }

        function sendMessage() {
            if (!ws || !messageInput.value) { return; }
            ws.send(JSON.stringify({ text: messageInput.value }));
            messageInput.value = '';
        }

        messageInput.addEventListener('keyup', (event) => {
            if (event.key === 'Enter') { sendMessage(); }
        });
    </script>
</body>
</html>
`
