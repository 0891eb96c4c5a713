package main

const htmlContent = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Poppy and Buddy</title>
    <style>
        body { margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #f4fbfb; color: #123; height: 100vh; display: flex; flex-direction: column; overflow: hidden; }

        .tabs { display: flex; background: #0f6e6e; height: 40px; align-items: flex-end; padding-left: 8px; flex-shrink: 0; }
        .tab {
            padding: 8px 16px;
            cursor: pointer;
            font-size: 13px;
            color: #cfe;
            border-top-left-radius: 6px;
            border-top-right-radius: 6px;
            margin-right: 2px;
            user-select: none;
        }
        .tab.active { background: #f4fbfb; color: #0f6e6e; }
        .tab.disabled { pointer-events: none; opacity: 0.5; }

        .content { flex: 1; position: relative; display: flex; }
        .tab-content { display: none; width: 100%; height: 100%; }
        .tab-content.active { display: block; }

        .log-container {
            background: #062b2b;
            color: #cde;
            font-family: 'Consolas', 'Monaco', 'Courier New', monospace;
            font-size: 12px;
            padding: 12px;
            overflow-y: auto;
            white-space: pre-wrap;
            word-wrap: break-word;
            height: 100%;
            box-sizing: border-box;
        }

        iframe { width: 100%; height: 100%; border: none; background: #fff; }

        .info { color: #7fdc8a; }
        .warn { color: #ffb74d; }
        .err { color: #ff6f60; }
        .sys { color: #7ecfff; font-weight: bold; }
    </style>
</head>
<body>
    <div class="tabs">
        <div class="tab disabled" id="tab-site" onclick="switchTab('site')">STORIES</div>
        <div class="tab active" id="tab-log" onclick="switchTab('log')">LOG</div>
    </div>

    <div class="content">
        <div id="content-site" class="tab-content">
            <iframe id="frame-site"></iframe>
        </div>
        <div id="content-log" class="tab-content active">
            <div id="log-output" class="log-container"></div>
        </div>
    </div>

    <script>
        const output = document.getElementById('log-output');

        function switchTab(id) {
            document.querySelectorAll('.tab').forEach(t => t.classList.remove('active'));
            document.querySelectorAll('.tab-content').forEach(c => c.classList.remove('active'));
            document.getElementById('tab-' + id).classList.add('active');
            document.getElementById('content-' + id).classList.add('active');
        }

        function appendLog(text) {
            const line = document.createElement('div');
            if (text.includes('ERROR') || text.includes('FAIL')) line.className = 'err';
            else if (text.includes('WARN')) line.className = 'warn';
            else if (text.includes('INFO')) line.className = 'info';
            else if (text.startsWith('>')) line.className = 'sys';
            line.textContent = text;
            output.appendChild(line);
            output.scrollTop = output.scrollHeight;
        }

        // Exposed to Go
        window.enableApp = function(url) {
            document.getElementById('frame-site').src = url;
            document.getElementById('tab-site').classList.remove('disabled');
            switchTab('site');
        };

        window.addLogLine = function(line) {
            appendLog(line);
        };

        document.addEventListener('contextmenu', event => event.preventDefault());
        document.addEventListener('keydown', function(event) {
            if (event.key === 'F5' || (event.ctrlKey && event.key === 'r')) {
                event.preventDefault();
            }
        });
    </script>
</body>
</html>
`
