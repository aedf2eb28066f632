package api

const webUI = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Attendance Station</title>
<style>
html{font:14px/1.5 system-ui,-apple-system,'Segoe UI',sans-serif}
body{margin:0;background:#eef2f5;color:#1f2933}
h1,h2{margin:0}
input,textarea,button{font:inherit}

/* Top bar and tabs */
.hdr{position:sticky;top:0;z-index:10;display:flex;justify-content:space-between;align-items:center;padding:12px 20px;background:#0f5c6e;color:#fff}
.hdr h1{font-size:17px;font-weight:600;letter-spacing:.2px}
.hdr-right{display:flex;gap:8px;align-items:center;font-size:12px}
.sdot{display:inline-block;width:9px;height:9px;border-radius:9px}
.dot-green{background:#2fb36d}.dot-red{background:#e0483e}.dot-yellow{background:#e8a33d}.dot-gray{background:#a3afba}
.tabs{position:sticky;top:46px;z-index:9;display:flex;gap:4px;padding:0 14px;background:#fff;box-shadow:0 1px 0 #d5dde3}
.tab{padding:10px 16px;color:#52606d;cursor:pointer;border-bottom:3px solid transparent}
.tab.active{color:#0f5c6e;border-bottom-color:#0f5c6e;font-weight:600}

/* Layout */
.content{max-width:980px;margin:0 auto;padding:18px}
.page{display:none}.page.active{display:block}
.card{margin-bottom:14px;padding:18px;background:#fff;border:1px solid #d5dde3;border-radius:6px}
.card h2{margin-bottom:12px;font-size:15px;color:#0f5c6e}

/* Controls */
.btn{padding:7px 14px;border:1px solid transparent;border-radius:4px;cursor:pointer}
.btn[disabled]{opacity:.45;cursor:default}
.btn-primary{background:#0f5c6e;color:#fff}
.btn-secondary{background:#f0f4f7;border-color:#c9d3db;color:#1f2933}
.btn-danger{background:#fff;border-color:#e0483e;color:#e0483e}
.btn-row{display:flex;flex-wrap:wrap;gap:8px;margin-top:12px}
.form-row{display:grid;grid-template-columns:repeat(3,1fr);gap:12px}
.form-group{margin-bottom:12px}
.form-group label{display:block;margin-bottom:3px;font-size:12px;color:#52606d}
.form-group input,.form-group textarea{box-sizing:border-box;width:100%;padding:7px 10px;border:1px solid #c9d3db;border-radius:4px}
.form-group textarea{min-height:140px;font:12px/1.4 ui-monospace,Menlo,Consolas,monospace}

/* Fingerprint */
.fp-status{display:flex;gap:14px;align-items:center}
.fp-icon{flex:none;width:44px;height:44px;border-radius:50%;background:#d5dde3}
.fp-icon.capturing{background:#e8a33d;animation:blink 1s infinite alternate}
.fp-icon.captured{background:#2fb36d}
.fp-icon.enrolled{background:#0f5c6e}
.progress{margin-top:12px;height:5px;background:#e4e9ed;border-radius:5px;overflow:hidden}
.progress-bar{width:0;height:100%;background:#e8a33d;transition:width .2s}
.kv{display:flex;justify-content:space-between;padding:5px 0;font-size:13px}
.kv+.kv{border-top:1px solid #eef2f5}

/* Reports */
.table-wrap{overflow-x:auto}
.details-table{width:100%;border-collapse:collapse;font-size:13px}
.details-table th,.details-table td{padding:4px 8px;border:1px solid #e4e9ed;text-align:left}
.details-table th{background:#f5f8fa}
.badge-present,.badge-absent{padding:0 8px;border-radius:8px;font-size:12px}
.badge-present{background:#dcf5e6;color:#1b7a46}
.badge-absent{background:#fbe1df;color:#a5281f}
.status-badge{font-size:12px;font-weight:600}
.status-allowed{color:#1b7a46}.status-not-allowed{color:#a5281f}
.text-muted{color:#a3afba}
.empty-state{padding:36px;text-align:center;color:#7b8794}
.chart{display:flex;height:22px;margin:8px 0;background:#e4e9ed;border-radius:4px;overflow:hidden}
.chart div{height:100%}
.chart-legend{font-size:13px;color:#52606d}

/* Logs */
.log-container{max-height:480px;overflow-y:auto;padding:14px;background:#14232b;border-radius:6px;color:#b8c4ce;font:12px/1.5 ui-monospace,Menlo,Consolas,monospace}
.log-entry{white-space:pre-wrap;word-break:break-word}
.log-time{color:#6fb7c9}
.log-success{color:#2fb36d}.log-warn,.log-warning{color:#e8a33d}.log-error{color:#e0483e}

/* Toasts */
#toast-root{position:fixed;top:56px;right:16px;z-index:20;display:flex;flex-direction:column;gap:6px}
.toast{padding:10px 16px;border-radius:4px;color:#fff;background:#0f5c6e;box-shadow:0 3px 10px rgba(0,0,0,.18)}
.toast-success{background:#2fb36d}.toast-error{background:#e0483e}.toast-warning{background:#e8a33d}

@keyframes blink{to{opacity:.45}}
@media(max-width:640px){.form-row{grid-template-columns:1fr}.tab{padding:8px 10px}}
</style>
</head>
<body>
<div class="hdr">
 <h1>Attendance Station</h1>
 <div class="hdr-right"><span class="sdot dot-gray" id="hdr-dot"></span><span id="hdr-text">Checking device...</span></div>
</div>
<div class="tabs" id="tab-bar">
 <div class="tab" data-page="fingerprint" onclick="nav('fingerprint')">Fingerprint</div>
 <div class="tab" data-page="reports" onclick="nav('reports')">Reports</div>
 <div class="tab" data-page="logs" onclick="nav('logs')">Logs</div>
</div>

<div class="content">
 <!-- Fingerprint -->
 <div class="page" id="page-fingerprint">
  <div class="card">
   <h2>Fingerprint Capture</h2>
   <div class="fp-status"><div class="fp-icon" id="fp-icon"></div><div><strong id="fp-state">Ready</strong><div id="fp-detail" style="font-size:13px;color:#666">Click "Capture" and place a finger on the sensor.</div></div></div>
   <div class="progress"><div class="progress-bar" id="fp-progress"></div></div>
   <div class="btn-row">
    <button class="btn btn-primary" id="btn-capture" onclick="startCapture()">Capture</button>
    <button class="btn btn-danger" id="btn-clear" onclick="clearFingerprint()">Clear</button>
    <button class="btn btn-secondary" onclick="checkDevice()">Check Device</button>
   </div>
  </div>
  <div class="card">
   <h2>Enroll Student</h2>
   <div class="form-row">
    <div class="form-group"><label>First Name</label><input type="text" id="firstName"></div>
    <div class="form-group"><label>Last Name</label><input type="text" id="lastName"></div>
    <div class="form-group"><label>Registration No.</label><input type="text" id="reg_no"></div>
   </div>
   <button class="btn btn-primary" id="btn-enroll" onclick="enroll()" disabled>Enroll Fingerprint</button>
  </div>
  <div class="card">
   <h2>Device</h2>
   <div id="device-info"><div class="kv"><span>Status</span><span>-</span></div></div>
  </div>
  <div class="card">
   <h2>Recent Captures</h2>
   <div id="captures"><div class="empty-state">No captures yet</div></div>
  </div>
 </div>

 <!-- Reports -->
 <div class="page" id="page-reports">
  <div class="card">
   <h2>Load Report</h2>
   <div class="form-group"><label>Report JSON ({"attendance": {...}, "summary": [...]})</label><textarea id="report-json"></textarea></div>
   <div class="btn-row">
    <button class="btn btn-primary" onclick="loadReport()">Load</button>
    <input type="file" id="report-file" accept=".json,application/json" onchange="readReportFile(this)">
   </div>
  </div>
  <div class="card">
   <h2>Summary</h2>
   <div class="chart" id="chart"></div>
   <div class="chart-legend" id="chart-legend">No data</div>
   <div class="btn-row">
    <button class="btn btn-secondary" onclick="download('csv')">Export CSV</button>
    <button class="btn btn-secondary" onclick="download('pdf')">Export PDF</button>
    <button class="btn btn-secondary" onclick="download('xlsx')">Export Excel</button>
    <button class="btn btn-secondary" onclick="printView('current')">Print Report</button>
   </div>
  </div>
  <div class="card">
   <h2>All Attendance Details</h2>
   <div class="table-wrap" id="details"></div>
   <div class="btn-row"><button class="btn btn-secondary" onclick="printView('details')">Print Details</button></div>
  </div>
 </div>

 <!-- Logs -->
 <div class="page" id="page-logs">
  <div class="card">
   <h2>Activity Log</h2>
   <div class="log-container" id="log"></div>
  </div>
 </div>
</div>
<div id="toast-root"></div>

<script>
var currentPage = 'fingerprint';
var session = null;
var ws = null;

// ============ Navigation ============
var PAGES = ['fingerprint', 'reports', 'logs'];

function nav(page) {
 currentPage = page;
 window.location.hash = '#/' + page;
 PAGES.forEach(function(p) {
  document.getElementById('page-' + p).classList.toggle('active', p === page);
  document.querySelector('[data-page="' + p + '"]').classList.toggle('active', p === page);
 });
 ({
  fingerprint: function() { refreshSession(); refreshCaptures(); },
  reports: refreshReport,
  logs: refreshLogs
 })[page]();
}

// ============ API ============
function api(method, path, body) {
 var opts = { method: method };
 if (body instanceof URLSearchParams) {
  opts.body = body;
 } else if (body) {
  opts.headers = { 'Content-Type': 'application/json' };
  opts.body = JSON.stringify(body);
 }
 return fetch(path, opts).then(function(r) {
  return r.json().then(function(data) {
   if (!r.ok || data.success === false) throw new Error(data.error || ('HTTP ' + r.status));
   return data;
  });
 });
}

// ============ Fingerprint ============
function refreshSession() {
 api('GET', '/api/fingerprint').then(renderSession).catch(function() {});
}

function renderSession(s) {
 session = s;
 var icon = document.getElementById('fp-icon');
 icon.className = 'fp-icon ' + s.state;
 var labels = { ready: 'Ready', capturing: 'Capturing...', captured: 'Fingerprint captured', enrolled: 'Enrolled' };
 document.getElementById('fp-state').textContent = labels[s.state] || s.state;

 var detail = 'Click "Capture" and place a finger on the sensor.';
 if (s.state === 'capturing') detail = 'Attempt ' + s.attempts + ' of ' + s.max_attempts;
 if (s.fingerprint && s.state === 'captured') detail = 'ID ' + s.fingerprint.fingerprint_id + '. Fill in the student details to enroll.';
 if (s.fingerprint && s.state === 'enrolled') detail = esc(s.fingerprint.student_name) + ' enrolled in slot ' + s.fingerprint.enrolled_id;
 document.getElementById('fp-detail').innerHTML = detail;

 var pct = s.state === 'capturing' && s.max_attempts ? Math.round(s.attempts / s.max_attempts * 100) : (s.captured ? 100 : 0);
 document.getElementById('fp-progress').style.width = pct + '%';
 document.getElementById('btn-capture').disabled = s.is_capturing || s.is_enrolling || s.state === 'enrolled';
 document.getElementById('btn-enroll').disabled = s.state !== 'captured' || s.is_enrolling;
 renderConnection(s.connection || {});
}

function renderConnection(c) {
 var dot = document.getElementById('hdr-dot');
 var text = document.getElementById('hdr-text');
 if (!c.checked_at) {
  dot.className = 'sdot dot-gray'; text.textContent = 'Device not checked';
 } else if (c.connected && c.fingerprint_sensor === 'connected') {
  dot.className = 'sdot dot-green'; text.textContent = 'Device connected';
 } else if (c.connected) {
  dot.className = 'sdot dot-yellow'; text.textContent = 'Sensor not connected';
 } else {
  dot.className = 'sdot dot-red'; text.textContent = 'Device offline';
 }
 var rows = [['Status', c.connected ? 'Connected' : 'Disconnected'], ['Sensor', c.fingerprint_sensor || '-'], ['Capacity', c.capacity || '-'], ['Last check', c.checked_at ? new Date(c.checked_at).toLocaleTimeString() : '-']];
 if (c.last_error) rows.push(['Error', c.last_error]);
 document.getElementById('device-info').innerHTML = rows.map(function(r) {
  return '<div class="kv"><span>' + r[0] + '</span><span>' + esc(String(r[1])) + '</span></div>';
 }).join('');
}

function startCapture() {
 api('POST', '/api/fingerprint/capture').catch(function(err) { toast(err.message, 'error'); });
}

function clearFingerprint() {
 api('POST', '/api/fingerprint/clear').then(function(d) { renderSession(d.session); }).catch(function(err) { toast(err.message, 'error'); });
}

function checkDevice() {
 api('POST', '/api/device/check').then(function(d) { renderConnection(d.connection); }).catch(function(err) { toast(err.message, 'error'); });
}

function enroll() {
 var form = new URLSearchParams();
 form.set('firstName', document.getElementById('firstName').value);
 form.set('lastName', document.getElementById('lastName').value);
 form.set('reg_no', document.getElementById('reg_no').value);
 document.getElementById('btn-enroll').disabled = true;
 api('POST', '/api/fingerprint/enroll', form).then(function(d) { renderSession(d.session); refreshCaptures(); }).catch(function(err) {
  toast(err.message, 'error');
  refreshSession();
 });
}

function refreshCaptures() {
 api('GET', '/api/captures').then(function(d) {
  var el = document.getElementById('captures');
  if (!d.captures || d.captures.length === 0) { el.innerHTML = '<div class="empty-state">No captures yet</div>'; return; }
  el.innerHTML = d.captures.slice(0, 10).map(function(c) {
   return '<div class="kv"><span>' + esc(c.kind) + ' ' + (c.fingerprint_id ? '#' + c.fingerprint_id : '') + '</span><span>' + esc(c.outcome) + ' &middot; ' + timeAgo(c.finished_at) + '</span></div>';
  }).join('');
 }).catch(function() {});
}

// ============ Reports ============
function readReportFile(input) {
 if (!input.files.length) return;
 var reader = new FileReader();
 reader.onload = function() { document.getElementById('report-json').value = reader.result; };
 reader.readAsText(input.files[0]);
}

function loadReport() {
 var body;
 try { body = JSON.parse(document.getElementById('report-json').value); } catch (e) { toast('Invalid JSON: ' + e.message, 'error'); return; }
 api('POST', '/api/reports', body).then(function() { toast('Report loaded', 'success'); refreshReport(); }).catch(function(err) { toast(err.message, 'error'); });
}

function refreshReport() {
 fetch('/api/reports/details').then(function(r) { return r.text(); }).then(function(html) {
  document.getElementById('details').innerHTML = html;
 });
 fetch('/api/reports/chart').then(function(r) { return r.ok ? r.json() : null; }).then(function(chart) {
  var bar = document.getElementById('chart');
  var legend = document.getElementById('chart-legend');
  if (!chart || !chart.total) { bar.innerHTML = ''; legend.textContent = 'No data'; return; }
  bar.innerHTML = chart.slices.map(function(s) { return '<div style="width:' + s.percent + '%;background:' + s.color + '"></div>'; }).join('');
  legend.textContent = chart.slices.map(function(s) { return s.label + ': ' + s.count + ' (' + s.percent + '%)'; }).join('   ');
 }).catch(function() {});
}

function download(format) {
 fetch('/api/reports/export/' + format).then(function(r) {
  if (!r.ok) return r.json().then(function(d) { throw new Error(d.error || ('HTTP ' + r.status)); });
  var name = 'attendance_report.' + format;
  var m = /filename="([^"]+)"/.exec(r.headers.get('Content-Disposition') || '');
  if (m) name = m[1];
  return r.blob().then(function(blob) {
   var a = document.createElement('a');
   a.href = URL.createObjectURL(blob);
   a.download = name;
   a.click();
  });
 }).catch(function(err) { toast(err.message, 'warning'); });
}

function printView(view) {
 window.open('/api/reports/print/' + view, '_blank');
}

// ============ Logs ============
function refreshLogs() {
 api('GET', '/api/logs').then(function(d) {
  var el = document.getElementById('log');
  el.innerHTML = '';
  (d.entries || []).forEach(appendLog);
  el.scrollTop = el.scrollHeight;
 }).catch(function() {});
}

function appendLog(e) {
 var el = document.getElementById('log');
 var row = document.createElement('div');
 row.className = 'log-entry log-' + e.level;
 row.innerHTML = '<span class="log-time">[' + new Date(e.timestamp).toLocaleTimeString() + ']</span> ' + esc(e.message);
 el.appendChild(row);
}

// ============ Live updates ============
function connectWS() {
 var proto = window.location.protocol === 'https:' ? 'wss://' : 'ws://';
 ws = new WebSocket(proto + window.location.host + '/ws');
 ws.onmessage = function(msg) {
  var ev;
  try { ev = JSON.parse(msg.data); } catch (e) { return; }
  if (ev.type === 'snapshot') renderSession(ev.data);
  if (ev.type === 'alert') toast(ev.data.message, ev.data.level);
  if (ev.type === 'record') refreshCaptures();
  if (ev.type === 'report' && currentPage === 'reports') refreshReport();
  if (ev.type === 'log' && currentPage === 'logs') appendLog(ev.data);
 };
 ws.onclose = function() { setTimeout(connectWS, 3000); };
}

// ============ Helpers ============
function toast(message, level) {
 var t = document.createElement('div');
 t.className = 'toast' + (level && level !== 'info' ? ' toast-' + level : '');
 t.textContent = message;
 document.getElementById('toast-root').appendChild(t);
 setTimeout(function() { t.parentNode && t.parentNode.removeChild(t); }, 4000);
}

var ESCAPES = { '&': '&amp;', '<': '&lt;', '>': '&gt;', '"': '&quot;', "'": '&#39;' };
function esc(v) {
 return v == null ? '' : String(v).replace(/[&<>"']/g, function(ch) { return ESCAPES[ch]; });
}

function timeAgo(ts) {
 if (!ts) return '-';
 var s = Math.max(0, Math.round((Date.now() - Date.parse(ts)) / 1000));
 if (s < 5) return 'just now';
 var units = [[86400, 'd'], [3600, 'h'], [60, 'm']];
 for (var i = 0; i < units.length; i++) {
  if (s >= units[i][0]) return Math.floor(s / units[i][0]) + units[i][1] + ' ago';
 }
 return s + 's ago';
}

var start = window.location.hash.replace('#/', '');
nav(PAGES.indexOf(start) >= 0 ? start : 'fingerprint');
connectWS();
</script>
</body>
</html>`
